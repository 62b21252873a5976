package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/pkg"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceEligibility is the stateless rule gate in front of every reward
// action. Methods take a bun.IDB so the settlement engine can re-run the
// same checks inside its own transaction; nothing here mutates state.
type ServiceEligibility struct{}

func NewServiceEligibility(container *do.Injector) (*ServiceEligibility, error) {
	return &ServiceEligibility{}, nil
}

func (service *ServiceEligibility) CheckSpin(ctx context.Context, db bun.IDB, userID int64, spinType string) error {
	switch spinType {
	case models.SPIN_TYPE_FREE:
		today := pkg.StartOfDay(time.Now())
		count, err := datastore.CountSpinsInRange(ctx, db, userID, models.SPIN_TYPE_FREE, today, today.AddDate(0, 0, 1))
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		if count >= FREE_SPIN_DAILY_LIMIT {
			return errorx.Wrap(errors.New("daily spin limit reached"), errorx.Invalid)
		}

		return nil
	case models.SPIN_TYPE_PAID:
		wallet, err := datastore.GetWallet(ctx, db, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return errorx.Wrap(ErrWalletMissing, errorx.Service)
		}
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		if wallet.SpinPoints < PAID_SPIN_COST {
			return errorx.Wrap(errors.New("insufficient spin points"), errorx.Invalid)
		}

		return nil
	default:
		return errorx.Wrap(errors.New("invalid spin type"), errorx.Validation)
	}
}

func (service *ServiceEligibility) CheckQuiz(answers []models.QuizAnswer) error {
	if len(answers) == 0 {
		return errorx.Wrap(errors.New("answers are required"), errorx.Validation)
	}

	return nil
}

func (service *ServiceEligibility) CheckNumberGame(guess int) error {
	if guess < NUMBER_GAME_MIN || guess > NUMBER_GAME_MAX {
		return errorx.Wrap(errors.New("guessed number must be between 1 and 100"), errorx.Validation)
	}

	return nil
}

func (service *ServiceEligibility) CheckVideoClaim(ctx context.Context, db bun.IDB, userID int64, videoID int64) error {
	video, err := datastore.GetVideoByID(ctx, db, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return errorx.Wrap(errors.New("video not found"), errorx.NotExist)
	}
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	if !video.IsActive {
		return errorx.Wrap(errors.New("video not found"), errorx.NotExist)
	}

	watch, err := datastore.GetVideoWatch(ctx, db, userID, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	if watch.RewardClaimed {
		return errorx.Wrap(errors.New("reward already claimed"), errorx.Invalid)
	}

	return nil
}
