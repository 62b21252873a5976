package services

import (
	"context"
	"errors"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/mroth/weightedrand/v2"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

var difficultyWeights = map[string]int{
	models.DIFFICULTY_EASY:   60,
	models.DIFFICULTY_MEDIUM: 30,
	models.DIFFICULTY_HARD:   10,
}

type ServiceQuiz struct {
	container  *do.Injector
	postgresDB *bun.DB
	cache      caching.Cache
}

func NewServiceQuiz(container *do.Injector) (*ServiceQuiz, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	return &ServiceQuiz{container, postgresDB, cache}, nil
}

func (service *ServiceQuiz) activeQuestions(ctx context.Context) ([]*models.QuizQuestion, error) {
	return caching.UseCache(ctx, service.cache, DBKeyQuizQuestions(), CACHE_TTL_15_MINS, func() ([]*models.QuizQuestion, error) {
		return datastore.GetActiveQuizQuestions(ctx, service.postgresDB)
	})
}

// GetQuestions draws a round of questions, biased toward easier ones.
// Difficulty buckets are sampled by weight, then questions are taken from
// the drawn bucket without replacement.
func (service *ServiceQuiz) GetQuestions(ctx context.Context, count int) ([]*models.QuizQuestion, error) {
	if count <= 0 {
		count = QUIZ_QUESTIONS_PER_ROUND
	}

	questions, err := service.activeQuestions(ctx)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if len(questions) == 0 {
		return nil, errorx.Wrap(errors.New("no quiz questions available"), errorx.NotExist)
	}

	buckets := map[string][]*models.QuizQuestion{}
	for _, question := range questions {
		buckets[question.Difficulty] = append(buckets[question.Difficulty], question)
	}

	picked := make([]*models.QuizQuestion, 0, count)
	for len(picked) < count {
		choices := make([]weightedrand.Choice[string, int], 0, len(buckets))
		for difficulty := range buckets {
			weight, ok := difficultyWeights[difficulty]
			if !ok {
				weight = 1
			}
			choices = append(choices, weightedrand.NewChoice(difficulty, weight))
		}
		if len(choices) == 0 {
			break
		}

		chooser, err := weightedrand.NewChooser(choices...)
		if err != nil {
			return nil, errorx.Wrap(err, errorx.Service)
		}

		difficulty := chooser.Pick()
		bucket := buckets[difficulty]
		picked = append(picked, bucket[0])
		if len(bucket) == 1 {
			delete(buckets, difficulty)
		} else {
			buckets[difficulty] = bucket[1:]
		}
	}

	return picked, nil
}

// GetCorrectAnswer resolves a question's answer key from the cached active
// set. Unknown or inactive question ids return NotExist.
func (service *ServiceQuiz) GetCorrectAnswer(ctx context.Context, questionID int64) (string, error) {
	questions, err := service.activeQuestions(ctx)
	if err != nil {
		return "", errorx.Wrap(err, errorx.Service)
	}

	for _, question := range questions {
		if question.ID == questionID {
			return question.CorrectAnswer, nil
		}
	}

	return "", errorx.Wrap(errors.New("question not found"), errorx.NotExist)
}

func (service *ServiceQuiz) ListAttempts(ctx context.Context, userID int64, limit int) ([]*models.QuizAttempt, error) {
	if limit <= 0 {
		limit = HISTORY_DEFAULT_LIMIT
	}

	attempts, err := datastore.ListQuizAttempts(ctx, service.postgresDB, userID, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return attempts, nil
}

// CreateQuestion is admin-only; invalidates the active-question cache.
func (service *ServiceQuiz) CreateQuestion(ctx context.Context, question *models.QuizQuestion) error {
	if question.Question == "" || question.CorrectAnswer == "" {
		return errorx.Wrap(errors.New("question and correct answer are required"), errorx.Validation)
	}
	if len(question.Options) < 2 {
		return errorx.Wrap(errors.New("at least two options are required"), errorx.Validation)
	}

	found := false
	for _, option := range question.Options {
		if option == question.CorrectAnswer {
			found = true
			break
		}
	}
	if !found {
		return errorx.Wrap(errors.New("correct answer must be one of the options"), errorx.Validation)
	}

	if _, ok := difficultyWeights[question.Difficulty]; !ok {
		question.Difficulty = models.DIFFICULTY_EASY
	}
	question.IsActive = true

	if err := datastore.InsertQuizQuestion(ctx, service.postgresDB, question); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	_ = service.cache.Delete(ctx, DBKeyQuizQuestions())
	return nil
}
