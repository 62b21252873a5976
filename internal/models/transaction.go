package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TRANSACTION_SPIN_REWARD    = "spin_reward"
	TRANSACTION_VIDEO_REWARD   = "video_reward"
	TRANSACTION_QUIZ_REWARD    = "quiz_reward"
	TRANSACTION_GAME_REWARD    = "game_reward"
	TRANSACTION_REFERRAL_BONUS = "referral_bonus"
	TRANSACTION_WITHDRAWAL     = "withdrawal"
	TRANSACTION_DEPOSIT        = "deposit"
)

// Transaction is the append-only audit trail. Rows are inserted once per
// settlement and never updated or deleted; the sum of a user's amounts must
// reconcile to wallet.balance at all times.
type Transaction struct {
	bun.BaseModel `bun:"table:transaction"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	Type          string    `bun:"type" json:"type"`
	Amount        float64   `bun:"amount" json:"amount"`
	Description   string    `bun:"description" json:"description"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
