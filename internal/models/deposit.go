package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DEPOSIT_PENDING   = "pending"
	DEPOSIT_COMPLETED = "completed"
	DEPOSIT_FAILED    = "failed"
)

// Deposit tracks one STK-push checkout. CheckoutRequestID is the idempotency
// key: the payment callback settles at most one deposit per checkout.
type Deposit struct {
	bun.BaseModel     `bun:"table:deposit"`
	ID                int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID            int64     `bun:"user_id" json:"user_id"`
	Amount            float64   `bun:"amount" json:"amount"`
	Phone             string    `bun:"phone" json:"phone"`
	CheckoutRequestID string    `bun:"checkout_request_id,unique" json:"checkout_request_id"`
	Status            string    `bun:"status" json:"status"`
	CreatedAt         time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt         time.Time `bun:"updated_at" json:"updated_at"`
}

type DepositRequest struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone"`
}
