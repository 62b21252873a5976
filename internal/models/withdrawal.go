package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	WITHDRAWAL_PENDING  = "pending"
	WITHDRAWAL_APPROVED = "approved"
	WITHDRAWAL_REJECTED = "rejected"
)

// Withdrawal is a request only; the balance debit happens when an admin
// approves it, inside the user's settlement transaction.
type Withdrawal struct {
	bun.BaseModel `bun:"table:withdrawal"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	Amount        float64   `bun:"amount" json:"amount"`
	Phone         string    `bun:"phone" json:"phone"`
	Status        string    `bun:"status" json:"status"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

type WithdrawalRequest struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone"`
}
