package datastore

import (
	"context"
	"time"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableWallet(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Wallet)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertWallet(ctx context.Context, db bun.IDB, wallet *models.Wallet) error {
	_, err := db.NewInsert().Model(wallet).Exec(ctx)
	return err
}

func GetWallet(ctx context.Context, db bun.IDB, userID int64) (*models.Wallet, error) {
	var wallet models.Wallet
	err := db.NewSelect().Model(&wallet).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &wallet, nil
}

func ListTopEarners(ctx context.Context, db bun.IDB, limit, offset int) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	err := db.NewSelect().Model(&wallets).
		Where("total_earnings > 0").
		OrderExpr("total_earnings DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return wallets, nil
}

// UpdateWalletBalances writes back the read-modify-write result of a
// settlement. Callers must hold the user's wallet lock.
func UpdateWalletBalances(ctx context.Context, db bun.IDB, wallet *models.Wallet) error {
	wallet.UpdatedAt = time.Now()
	_, err := db.NewUpdate().Model(wallet).
		Set("balance = ?", wallet.Balance).
		Set("spin_points = ?", wallet.SpinPoints).
		Set("total_earnings = ?", wallet.TotalEarnings).
		Set("updated_at = ?", wallet.UpdatedAt).
		WherePK().Exec(ctx)
	return err
}
