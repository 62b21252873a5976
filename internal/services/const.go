package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrWalletLock = errors.New("wallet locked")
var ErrWalletMissing = errors.New("wallet not found")

const (
	FREE_SPIN_DAILY_LIMIT = 5
	PAID_SPIN_COST        = 10
	SPIN_REWARD_MIN       = 1
	SPIN_REWARD_MAX       = 100

	POINTS_PER_CORRECT_ANSWER = 5

	NUMBER_GAME_MIN    = 1
	NUMBER_GAME_MAX    = 100
	NUMBER_GAME_REWARD = 50

	QUIZ_QUESTIONS_PER_ROUND = 10

	HISTORY_DEFAULT_LIMIT = 50

	LEADERBOARD_OVERALL = "overall"
	LEADERBOARD_WEEKLY  = "weekly"

	CONFIG_LEADERBOARD_LIMIT        = "LEADERBOARD_LIMIT"
	CONFIG_CRONJOB_TIME_LEADERBOARD = "CRONJOB_TIME_LEADERBOARD"

	LEADERBOARD_DEFAULT_LIMIT = 20

	REWARD_ACTION_RATE_LIMIT_PER_MINUTE = 30

	CACHE_TTL_1_MIN   = 1 * time.Minute
	CACHE_TTL_5_MINS  = 5 * time.Minute
	CACHE_TTL_15_MINS = 15 * time.Minute
	CACHE_TTL_1_HOUR  = 1 * time.Hour
)

func LockKeyUserWallet(userID int64) string {
	return fmt.Sprintf("lock:user-wallet:%d", userID)
}

// db
func DBKeyUser(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

func DBKeyWallet(userID int64) string {
	return fmt.Sprintf("wallet:%d", userID)
}

func DBKeyQuizQuestions() string {
	return "quiz:questions:active"
}

func DBKeyQuizAnswer(questionID int64) string {
	return fmt.Sprintf("quiz:answer:%d", questionID)
}

func DBKeyReferralSetting(level int) string {
	return fmt.Sprintf("referral:setting:%d", level)
}

func DBKeyConfig(key string) string {
	return fmt.Sprintf("config:%s", strings.ToLower(key))
}

func LimitKeyUserAction(userID int64, action string) string {
	return fmt.Sprintf("limit:user-action:%d:%s", userID, action)
}
