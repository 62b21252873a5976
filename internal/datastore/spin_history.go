package datastore

import (
	"context"
	"time"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableSpinHistory(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.SpinHistory)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.SpinHistory)(nil)).Index("index_spin_history_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.SpinHistory)(nil)).Index("index_spin_history_created_at").IfNotExists().Column("created_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertSpinHistory(ctx context.Context, db bun.IDB, spin *models.SpinHistory) error {
	_, err := db.NewInsert().Model(spin).Exec(ctx)
	return err
}

func CountSpinsInRange(ctx context.Context, db bun.IDB, userID int64, spinType string, from, to time.Time) (int, error) {
	return db.NewSelect().Model((*models.SpinHistory)(nil)).
		Where("user_id = ?", userID).
		Where("spin_type = ?", spinType).
		Where("created_at >= ?", from).
		Where("created_at < ?", to).
		Count(ctx)
}

func ListSpinHistory(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.SpinHistory, error) {
	var spins []*models.SpinHistory
	err := db.NewSelect().Model(&spins).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return spins, nil
}
