package models

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:user"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Email         string    `bun:"email,unique" json:"email"`
	FullName      string    `bun:"full_name" json:"full_name"`
	AvatarURL     string    `bun:"avatar_url" json:"avatar_url"`
	Phone         string    `bun:"phone" json:"phone"`
	ReferralCode  string    `bun:"referral_code,unique" json:"referral_code"`
	ReferredBy    *int64    `bun:"referred_by" json:"referred_by"`
	IsAdmin       bool      `bun:"is_admin" json:"-"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`

	IsNewUser bool    `bun:"-" json:"is_new_user"`
	Wallet    *Wallet `bun:"-" json:"wallet,omitempty"`
}

// UserFromAuth only use in middleware. The identity provider puts the
// inviter's referral code (if any) into the token claims, so a referred
// user gets its ancestor chain attached on first sight.
type UserFromAuth struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	ReferralCode string `json:"ref"`
}
