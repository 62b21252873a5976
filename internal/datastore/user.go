package datastore

import (
	"context"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableUser(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.User)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_referral_code").IfNotExists().Unique().Column("referral_code").Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.User)(nil)).Index("index_user_referred_by").IfNotExists().Column("referred_by").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateUser(ctx context.Context, db bun.IDB, user *models.User) error {
	_, err := db.NewInsert().Model(user).Exec(ctx)
	return err
}

func GetUserByID(ctx context.Context, db bun.IDB, userID int64) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func GetUserByEmail(ctx context.Context, db bun.IDB, email string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("email = ?", email).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func GetUserByReferralCode(ctx context.Context, db bun.IDB, code string) (*models.User, error) {
	var user models.User
	err := db.NewSelect().Model(&user).Where("referral_code = ?", code).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func UpdateUserProfile(ctx context.Context, db bun.IDB, user *models.User) error {
	_, err := db.NewUpdate().Model(user).
		Set("full_name = ?", user.FullName).
		Set("avatar_url = ?", user.AvatarURL).
		Set("phone = ?", user.Phone).
		Set("updated_at = current_timestamp").
		WherePK().Exec(ctx)
	return err
}
