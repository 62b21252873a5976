package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Wallet is created together with its user in the same transaction and is
// only ever mutated inside a per-user settlement transaction. Balance and
// TotalEarnings never decrease except for explicit debits (withdrawals);
// SpinPoints are spent on paid spins and never touch Balance.
type Wallet struct {
	bun.BaseModel `bun:"table:wallet"`
	UserID        int64     `bun:"user_id,pk" json:"user_id"`
	Balance       float64   `bun:"balance" json:"balance"`
	SpinPoints    int       `bun:"spin_points" json:"spin_points"`
	TotalEarnings float64   `bun:"total_earnings" json:"total_earnings"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}
