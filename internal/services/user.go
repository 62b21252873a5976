package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/pkg/caching"

	"github.com/google/uuid"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceUser struct {
	container       *do.Injector
	postgresDB      *bun.DB
	cache           caching.Cache
	serviceReferral *ServiceReferral
}

func NewServiceUser(container *do.Injector) (*ServiceUser, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceReferral, err := do.Invoke[*ServiceReferral](container)
	if err != nil {
		return nil, err
	}

	return &ServiceUser{container, postgresDB, cache, serviceReferral}, nil
}

// FindOrCreateUser resolves the authenticated identity to a local account,
// provisioning the account, its wallet and its referral chain on first
// sight. Registration is one transaction so a user can never exist without
// a wallet.
func (service *ServiceUser) FindOrCreateUser(ctx context.Context, auth *models.UserFromAuth) (*models.User, error) {
	existing, err := datastore.GetUserByEmail(ctx, service.postgresDB, auth.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	var referrer *models.User
	if auth.ReferralCode != "" {
		referrer, err = datastore.GetUserByReferralCode(ctx, service.postgresDB, auth.ReferralCode)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, errorx.Wrap(err, errorx.Service)
		}
		// unknown codes are ignored, registration still proceeds
	}

	user := &models.User{
		Email:        auth.Email,
		FullName:     auth.FullName,
		ReferralCode: uuid.NewString()[:10],
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := datastore.CreateUser(ctx, tx, user); err != nil {
			return err
		}

		err := datastore.InsertWallet(ctx, tx, &models.Wallet{
			UserID:    user.ID,
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return err
		}

		if referrer != nil {
			return service.serviceReferral.CreateReferralEdges(ctx, tx, user.ID, referrer.ID)
		}
		return nil
	})
	if err != nil {
		// a concurrent first request may have won the insert
		existing, errExisting := datastore.GetUserByEmail(ctx, service.postgresDB, auth.Email)
		if errExisting == nil {
			return existing, nil
		}
		return nil, errorx.Wrap(err, errorx.Service)
	}

	user.IsNewUser = true
	return user, nil
}

func (service *ServiceUser) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	user, err := caching.UseCache(ctx, service.cache, DBKeyUser(userID), CACHE_TTL_5_MINS, func() (*models.User, error) {
		return datastore.GetUserByID(ctx, service.postgresDB, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("user not found"), errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return user, nil
}

// GetMe returns the profile with the wallet attached.
func (service *ServiceUser) GetMe(ctx context.Context, userID int64) (*models.User, error) {
	user, err := service.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	wallet, err := datastore.GetWallet(ctx, service.postgresDB, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	user.Wallet = wallet

	return user, nil
}

func (service *ServiceUser) UpdateProfile(ctx context.Context, userID int64, fullName string, avatarURL string, phone string) (*models.User, error) {
	user, err := datastore.GetUserByID(ctx, service.postgresDB, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("user not found"), errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	if fullName != "" {
		user.FullName = fullName
	}
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	if phone != "" {
		user.Phone = phone
	}
	user.UpdatedAt = time.Now()

	if err := datastore.UpdateUserProfile(ctx, service.postgresDB, user); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	_ = service.cache.Delete(ctx, DBKeyUser(userID))
	return user, nil
}
