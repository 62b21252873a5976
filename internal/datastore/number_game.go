package datastore

import (
	"context"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableNumberGameAttempt(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.NumberGameAttempt)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.NumberGameAttempt)(nil)).Index("index_number_game_attempt_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertNumberGameAttempt(ctx context.Context, db bun.IDB, attempt *models.NumberGameAttempt) error {
	_, err := db.NewInsert().Model(attempt).Exec(ctx)
	return err
}

func ListNumberGameAttempts(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.NumberGameAttempt, error) {
	var attempts []*models.NumberGameAttempt
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
