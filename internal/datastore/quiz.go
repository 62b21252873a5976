package datastore

import (
	"context"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableQuizQuestion(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.QuizQuestion)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.QuizQuestion)(nil)).Index("index_quiz_question_is_active").IfNotExists().Column("is_active").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableQuizAttempt(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.QuizAttempt)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.QuizAttempt)(nil)).Index("index_quiz_attempt_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertQuizQuestion(ctx context.Context, db bun.IDB, question *models.QuizQuestion) error {
	_, err := db.NewInsert().Model(question).Exec(ctx)
	return err
}

func GetActiveQuizQuestions(ctx context.Context, db bun.IDB) ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	err := db.NewSelect().Model(&questions).
		Where("is_active = ?", true).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return questions, nil
}

func GetQuizQuestionByID(ctx context.Context, db bun.IDB, questionID int64) (*models.QuizQuestion, error) {
	var question models.QuizQuestion
	err := db.NewSelect().Model(&question).Where("id = ?", questionID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &question, nil
}

func InsertQuizAttempt(ctx context.Context, db bun.IDB, attempt *models.QuizAttempt) error {
	_, err := db.NewInsert().Model(attempt).Exec(ctx)
	return err
}

func ListQuizAttempts(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	err := db.NewSelect().Model(&attempts).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return attempts, nil
}
