package datastore

import (
	"context"
	"time"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableDeposit(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Deposit)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Deposit)(nil)).Index("index_deposit_user_id").IfNotExists().Column("user_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Deposit)(nil)).Index("index_deposit_checkout_request_id").IfNotExists().Unique().Column("checkout_request_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertDeposit(ctx context.Context, db bun.IDB, deposit *models.Deposit) error {
	_, err := db.NewInsert().Model(deposit).Exec(ctx)
	return err
}

func GetDepositByCheckoutID(ctx context.Context, db bun.IDB, checkoutRequestID string) (*models.Deposit, error) {
	var deposit models.Deposit
	err := db.NewSelect().Model(&deposit).Where("checkout_request_id = ?", checkoutRequestID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &deposit, nil
}

// UpdateDepositStatus is the callback's idempotency guard: a checkout can
// only move out of pending once.
func UpdateDepositStatus(ctx context.Context, db bun.IDB, checkoutRequestID string, from, to string) (int64, error) {
	res, err := db.NewUpdate().Model((*models.Deposit)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", time.Now()).
		Where("checkout_request_id = ?", checkoutRequestID).
		Where("status = ?", from).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
