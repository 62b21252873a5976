package datastore

import (
	"context"
	"time"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableTransaction(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Transaction)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("index_transaction_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Transaction)(nil)).Index("index_transaction_created_at").IfNotExists().Column("created_at").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertTransaction(ctx context.Context, db bun.IDB, transaction *models.Transaction) error {
	_, err := db.NewInsert().Model(transaction).Exec(ctx)
	return err
}

func ListTransactionsByUser(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.Transaction, error) {
	var transactions []*models.Transaction
	err := db.NewSelect().Model(&transactions).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return transactions, nil
}

type UserEarnings struct {
	UserID int64   `bun:"user_id"`
	Total  float64 `bun:"total"`
}

// SumEarningsByUserFromTime feeds the weekly leaderboard: positive credits
// only, grouped per user, since the given time.
func SumEarningsByUserFromTime(ctx context.Context, db bun.IDB, from time.Time, limit, offset int) ([]*UserEarnings, error) {
	var earnings []*UserEarnings
	err := db.NewSelect().Model((*models.Transaction)(nil)).
		ColumnExpr("user_id").
		ColumnExpr("SUM(amount) AS total").
		Where("amount > 0").
		Where("created_at >= ?", from).
		GroupExpr("user_id").
		OrderExpr("total DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &earnings)
	if err != nil {
		return nil, err
	}

	return earnings, nil
}

// SumTransactionAmounts is the reconciliation side of the ledger invariant:
// the returned sum must equal wallet.balance for the same user.
func SumTransactionAmounts(ctx context.Context, db bun.IDB, userID int64) (float64, error) {
	var sum float64
	err := db.NewSelect().Model((*models.Transaction)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID).
		Scan(ctx, &sum)
	if err != nil {
		return 0, err
	}

	return sum, nil
}
