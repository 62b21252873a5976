package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	DIFFICULTY_EASY   = "easy"
	DIFFICULTY_MEDIUM = "medium"
	DIFFICULTY_HARD   = "hard"
)

type QuizQuestion struct {
	bun.BaseModel `bun:"table:quiz_question"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Question      string    `bun:"question" json:"question"`
	Options       []string  `bun:"options,type:jsonb" json:"options"`
	CorrectAnswer string    `bun:"correct_answer" json:"-"`
	Category      string    `bun:"category" json:"category"`
	Difficulty    string    `bun:"difficulty" json:"difficulty"`
	IsActive      bool      `bun:"is_active" json:"-"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`
}

type QuizAttempt struct {
	bun.BaseModel  `bun:"table:quiz_attempt"`
	ID             int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID         int64     `bun:"user_id" json:"user_id"`
	Score          int       `bun:"score" json:"score"`
	TotalQuestions int       `bun:"total_questions" json:"total_questions"`
	RewardEarned   float64   `bun:"reward_earned" json:"reward_earned"`
	CreatedAt      time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}

type QuizAnswer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

type QuizSubmission struct {
	Answers []QuizAnswer `json:"answers"`
}
