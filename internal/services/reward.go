package services

import (
	"math"

	"earnhub/internal/models"
)

// Reward calculator: pure functions, no I/O. All randomness comes in
// through the RandomSource argument.

// SpinReward draws a uniform reward in [1, 100].
func SpinReward(random RandomSource) int {
	return SPIN_REWARD_MIN + random.IntN(SPIN_REWARD_MAX-SPIN_REWARD_MIN+1)
}

// QuizReward pays 5 points per correct answer.
func QuizReward(correctCount int) float64 {
	return float64(correctCount * POINTS_PER_CORRECT_ANSWER)
}

// QuizScore is the percentage score rounded to the nearest integer; 0 when
// nothing was answered.
func QuizScore(correctCount, totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(correctCount) / float64(totalQuestions) * 100))
}

// NumberGameDraw draws the house number in [1, 100].
func NumberGameDraw(random RandomSource) int {
	return NUMBER_GAME_MIN + random.IntN(NUMBER_GAME_MAX-NUMBER_GAME_MIN+1)
}

func NumberGameReward(guess, drawn int) float64 {
	if guess == drawn {
		return NUMBER_GAME_REWARD
	}
	return 0
}

func VideoReward(video *models.Video) float64 {
	if video.RewardPoints <= 0 {
		return models.DEFAULT_VIDEO_REWARD_POINTS
	}
	return float64(video.RewardPoints)
}
