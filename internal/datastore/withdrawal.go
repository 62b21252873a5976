package datastore

import (
	"context"
	"time"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableWithdrawal(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Withdrawal)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Withdrawal)(nil)).Index("index_withdrawal_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Withdrawal)(nil)).Index("index_withdrawal_status").IfNotExists().Column("status").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertWithdrawal(ctx context.Context, db bun.IDB, withdrawal *models.Withdrawal) error {
	_, err := db.NewInsert().Model(withdrawal).Exec(ctx)
	return err
}

func GetWithdrawalByID(ctx context.Context, db bun.IDB, withdrawalID int64) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := db.NewSelect().Model(&withdrawal).Where("id = ?", withdrawalID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &withdrawal, nil
}

func ListWithdrawalsByUser(ctx context.Context, db bun.IDB, userID int64, limit int) ([]*models.Withdrawal, error) {
	var withdrawals []*models.Withdrawal
	err := db.NewSelect().Model(&withdrawals).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

func ListWithdrawalsByStatus(ctx context.Context, db bun.IDB, status string, limit int) ([]*models.Withdrawal, error) {
	var withdrawals []*models.Withdrawal
	err := db.NewSelect().Model(&withdrawals).
		Where("status = ?", status).
		OrderExpr("created_at ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return withdrawals, nil
}

// UpdateWithdrawalStatus transitions a withdrawal out of pending. The status
// guard makes approve/reject idempotent: a second transition touches 0 rows.
func UpdateWithdrawalStatus(ctx context.Context, db bun.IDB, withdrawalID int64, from, to string) (int64, error) {
	res, err := db.NewUpdate().Model((*models.Withdrawal)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", withdrawalID).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
