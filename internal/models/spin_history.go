package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	SPIN_TYPE_FREE = "free"
	SPIN_TYPE_PAID = "paid"
)

type SpinHistory struct {
	bun.BaseModel `bun:"table:spin_history"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	RewardAmount  float64   `bun:"reward_amount" json:"reward_amount"`
	SpinType      string    `bun:"spin_type" json:"spin_type"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
