package models

import (
	"time"

	"github.com/uptrace/bun"
)

const REFERRAL_MAX_LEVEL = 3

// Referral is one edge of the ancestor chain. Edges for every reachable
// level (1..3) are created when the referred user registers; the level-2 and
// level-3 edges point at the referrer's own ancestors.
type Referral struct {
	bun.BaseModel    `bun:"table:referral"`
	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	ReferrerID       int64     `bun:"referrer_id" json:"referrer_id"`
	ReferredID       int64     `bun:"referred_id" json:"referred_id"`
	Level            int       `bun:"level" json:"level"`
	CommissionEarned float64   `bun:"commission_earned" json:"commission_earned"`
	CreatedAt        time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type ReferralSetting struct {
	bun.BaseModel        `bun:"table:referral_setting"`
	Level                int     `bun:"level,pk" json:"level"`
	CommissionPercentage float64 `bun:"commission_percentage" json:"commission_percentage"`
	IsActive             bool    `bun:"is_active" json:"is_active"`
}

type ReferralLevelStats struct {
	Level            int     `bun:"level" json:"level"`
	Count            int     `bun:"count" json:"count"`
	CommissionEarned float64 `bun:"commission_earned" json:"commission_earned"`
}

type ReferralStats struct {
	ReferralCode  string               `json:"referral_code"`
	TotalReferred int                  `json:"total_referred"`
	TotalEarned   float64              `json:"total_earned"`
	Levels        []ReferralLevelStats `json:"levels"`
}
