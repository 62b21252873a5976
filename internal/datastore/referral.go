package datastore

import (
	"context"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableReferral(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Referral)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Referral)(nil)).Index("index_referral_referrer_id").IfNotExists().Column("referrer_id").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Referral)(nil)).Index("index_referral_referrer_id_referred_id").IfNotExists().Unique().Column("referrer_id", "referred_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableReferralSetting(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.ReferralSetting)(nil)).IfNotExists().Exec(ctx)
	return err
}

func InsertReferral(ctx context.Context, db bun.IDB, referral *models.Referral) error {
	_, err := db.NewInsert().Model(referral).On("CONFLICT (referrer_id, referred_id) DO NOTHING").Exec(ctx)
	return err
}

func GetReferralsByReferrer(ctx context.Context, db bun.IDB, referrerID int64) ([]*models.Referral, error) {
	var referrals []*models.Referral
	err := db.NewSelect().Model(&referrals).
		Where("referrer_id = ?", referrerID).
		OrderExpr("level ASC, created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return referrals, nil
}

func AddReferralCommission(ctx context.Context, db bun.IDB, referrerID, referredID int64, commission float64) error {
	_, err := db.NewUpdate().Model((*models.Referral)(nil)).
		Set("commission_earned = commission_earned + ?", commission).
		Where("referrer_id = ?", referrerID).
		Where("referred_id = ?", referredID).
		Exec(ctx)
	return err
}

func GetReferralLevelStats(ctx context.Context, db bun.IDB, referrerID int64) ([]models.ReferralLevelStats, error) {
	var stats []models.ReferralLevelStats
	err := db.NewSelect().Model((*models.Referral)(nil)).
		ColumnExpr("level").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(commission_earned), 0) AS commission_earned").
		Where("referrer_id = ?", referrerID).
		GroupExpr("level").
		OrderExpr("level ASC").
		Scan(ctx, &stats)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func UpsertReferralSetting(ctx context.Context, db bun.IDB, setting *models.ReferralSetting) error {
	_, err := db.NewInsert().Model(setting).
		On("CONFLICT (level) DO UPDATE").
		Set("commission_percentage = ?", setting.CommissionPercentage).
		Set("is_active = ?", setting.IsActive).
		Exec(ctx)
	return err
}

func GetReferralSetting(ctx context.Context, db bun.IDB, level int) (*models.ReferralSetting, error) {
	var setting models.ReferralSetting
	err := db.NewSelect().Model(&setting).Where("level = ?", level).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &setting, nil
}
