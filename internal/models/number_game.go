package models

import (
	"time"

	"github.com/uptrace/bun"
)

type NumberGameAttempt struct {
	bun.BaseModel `bun:"table:number_game_attempt"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	GuessedNumber int       `bun:"guessed_number" json:"guessed_number"`
	CorrectNumber int       `bun:"correct_number" json:"correct_number"`
	Won           bool      `bun:"won" json:"won"`
	RewardEarned  float64   `bun:"reward_earned" json:"reward_earned"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type NumberGameGuess struct {
	GuessedNumber int `json:"guessed_number"`
}
