package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/pkg"
	"earnhub/internal/pkg/caching"
	"earnhub/internal/pkg/locker"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceReferral struct {
	container  *do.Injector
	postgresDB *bun.DB
	locks      locker.Locker
	cache      caching.Cache

	serviceLeaderboard *ServiceLeaderboard
}

func NewServiceReferral(container *do.Injector) (*ServiceReferral, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	locks, err := do.Invoke[locker.Locker](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceLeaderboard, err := do.Invoke[*ServiceLeaderboard](container)
	if err != nil {
		return nil, err
	}

	return &ServiceReferral{container, postgresDB, locks, cache, serviceLeaderboard}, nil
}

// CreateReferralEdges links a new user to up to three levels of ancestors.
// Runs inside the registration transaction.
func (service *ServiceReferral) CreateReferralEdges(ctx context.Context, tx bun.IDB, newUserID int64, referrerID int64) error {
	ancestorID := referrerID
	for level := 1; level <= models.REFERRAL_MAX_LEVEL; level++ {
		err := datastore.InsertReferral(ctx, tx, &models.Referral{
			ReferrerID: ancestorID,
			ReferredID: newUserID,
			Level:      level,
			CreatedAt:  time.Now(),
		})
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		ancestor, err := datastore.GetUserByID(ctx, tx, ancestorID)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if ancestor.ReferredBy == nil {
			break
		}
		ancestorID = *ancestor.ReferredBy
	}

	return nil
}

func (service *ServiceReferral) getSetting(ctx context.Context, level int) (*models.ReferralSetting, error) {
	return caching.UseCache(ctx, service.cache, DBKeyReferralSetting(level), CACHE_TTL_1_HOUR, func() (*models.ReferralSetting, error) {
		setting, err := datastore.GetReferralSetting(ctx, service.postgresDB, level)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return setting, err
	})
}

// Propagate pays referral commission on a settled reward up to three
// ancestor levels. Each ancestor's wallet is locked and committed on its
// own, strictly after the earner's settlement released its lock; locks are
// never held pairwise, so there is no ordering to deadlock on.
func (service *ServiceReferral) Propagate(ctx context.Context, earnerID int64, amount float64) error {
	if amount <= 0 {
		return nil
	}

	earner, err := datastore.GetUserByID(ctx, service.postgresDB, earnerID)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	ancestorID := earner.ReferredBy
	for level := 1; level <= models.REFERRAL_MAX_LEVEL && ancestorID != nil; level++ {
		setting, err := service.getSetting(ctx, level)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		ancestor, err := datastore.GetUserByID(ctx, service.postgresDB, *ancestorID)
		if errors.Is(err, sql.ErrNoRows) {
			// broken chain, nothing above this point
			return nil
		}
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		// inactive levels are skipped but the walk continues upward
		if setting != nil && setting.IsActive && setting.CommissionPercentage > 0 {
			commission := pkg.Round2(amount * setting.CommissionPercentage / 100)
			if commission > 0 {
				if err := service.payCommission(ctx, earnerID, ancestor.ID, level, commission); err != nil {
					return err
				}
			}
		}

		ancestorID = ancestor.ReferredBy
	}

	return nil
}

func (service *ServiceReferral) payCommission(ctx context.Context, earnerID int64, ancestorID int64, level int, commission float64) error {
	unlock, err := service.locks.Lock(LockKeyUserWallet(ancestorID))
	if err != nil {
		return errorx.Wrap(ErrWalletLock, errorx.Invalid)
	}
	defer unlock()

	err = service.postgresDB.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		wallet, err := datastore.GetWallet(ctx, tx, ancestorID)
		if err != nil {
			return err
		}

		wallet.Balance += commission
		wallet.TotalEarnings += commission
		if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
			return err
		}

		err = datastore.InsertTransaction(ctx, tx, &models.Transaction{
			UserID:      ancestorID,
			Type:        models.TRANSACTION_REFERRAL_BONUS,
			Amount:      commission,
			Description: fmt.Sprintf("Level %d referral bonus from user %d", level, earnerID),
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return err
		}

		return datastore.AddReferralCommission(ctx, tx, ancestorID, earnerID, commission)
	})
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	_ = service.cache.Delete(ctx, DBKeyWallet(ancestorID))

	// commissions count as earnings, so they rank live too
	if err := service.serviceLeaderboard.RecordEarning(ctx, ancestorID, commission); err != nil {
		log.Printf("leaderboard bump for user %d: %v", ancestorID, err)
	}

	return nil
}

func (service *ServiceReferral) GetReferralStats(ctx context.Context, userID int64) (*models.ReferralStats, error) {
	user, err := datastore.GetUserByID(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	levels, err := datastore.GetReferralLevelStats(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	stats := &models.ReferralStats{
		ReferralCode: user.ReferralCode,
		Levels:       levels,
	}
	for _, level := range levels {
		stats.TotalReferred += level.Count
		stats.TotalEarned += level.CommissionEarned
	}

	return stats, nil
}

func (service *ServiceReferral) ListReferrals(ctx context.Context, userID int64) ([]*models.Referral, error) {
	referrals, err := datastore.GetReferralsByReferrer(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return referrals, nil
}

// UpdateSetting is the admin knob for per-level commission.
func (service *ServiceReferral) UpdateSetting(ctx context.Context, setting *models.ReferralSetting) error {
	if setting.Level < 1 || setting.Level > models.REFERRAL_MAX_LEVEL {
		return errorx.Wrap(errors.New("invalid referral level"), errorx.Validation)
	}
	if setting.CommissionPercentage < 0 || setting.CommissionPercentage > 100 {
		return errorx.Wrap(errors.New("commission percentage must be between 0 and 100"), errorx.Validation)
	}

	if err := datastore.UpsertReferralSetting(ctx, service.postgresDB, setting); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	_ = service.cache.Delete(ctx, DBKeyReferralSetting(setting.Level))
	return nil
}
