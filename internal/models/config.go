package models

import (
	"github.com/uptrace/bun"
)

// Config holds runtime-tunable keys (cron schedules, leaderboard limits)
// read through ServiceConfig with per-key defaults.
type Config struct {
	bun.BaseModel `bun:"table:config"`
	Key           string `bun:"key,pk" json:"key"`
	Value         string `bun:"value" json:"value"`
}
