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
	"earnhub/internal/pkg/caching"
	"earnhub/internal/pkg/locker"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

// ServiceSettlement turns a validated action into exactly one atomic ledger
// mutation: wallet credit (or debit), immutable transaction row and the
// action's history row all commit or roll back together, under the user's
// wallet lock.
type ServiceSettlement struct {
	container  *do.Injector
	postgresDB *bun.DB
	locks      locker.Locker
	cache      caching.Cache
	random     RandomSource

	serviceEligibility *ServiceEligibility
	serviceQuiz        *ServiceQuiz
	serviceReferral    *ServiceReferral
	serviceLeaderboard *ServiceLeaderboard
}

func NewServiceSettlement(container *do.Injector) (*ServiceSettlement, error) {
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

	random, err := do.Invoke[RandomSource](container)
	if err != nil {
		return nil, err
	}

	serviceEligibility, err := do.Invoke[*ServiceEligibility](container)
	if err != nil {
		return nil, err
	}

	serviceQuiz, err := do.Invoke[*ServiceQuiz](container)
	if err != nil {
		return nil, err
	}

	serviceReferral, err := do.Invoke[*ServiceReferral](container)
	if err != nil {
		return nil, err
	}

	serviceLeaderboard, err := do.Invoke[*ServiceLeaderboard](container)
	if err != nil {
		return nil, err
	}

	return &ServiceSettlement{container, postgresDB, locks, cache, random, serviceEligibility, serviceQuiz, serviceReferral, serviceLeaderboard}, nil
}

// withinUserTransaction is the per-user exclusive section: wallet lock
// first, then one DB transaction. Two settlements for the same user can
// never interleave their balance read and write; different users run fully
// in parallel.
func (service *ServiceSettlement) withinUserTransaction(ctx context.Context, userID int64, fn func(ctx context.Context, tx bun.Tx) error) error {
	unlock, err := service.locks.Lock(LockKeyUserWallet(userID))
	if err != nil {
		return errorx.Wrap(ErrWalletLock, errorx.Invalid)
	}
	defer unlock()

	return service.postgresDB.RunInTx(ctx, nil, fn)
}

func (service *ServiceSettlement) getWallet(ctx context.Context, tx bun.Tx, userID int64) (*models.Wallet, error) {
	wallet, err := datastore.GetWallet(ctx, tx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		// wallets are provisioned with the user; reaching settlement
		// without one is an account integrity violation
		log.Printf("INTEGRITY: wallet missing for user %d", userID)
		return nil, errorx.Wrap(ErrWalletMissing, errorx.Service)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return wallet, nil
}

func (service *ServiceSettlement) SettleSpin(ctx context.Context, user *models.User, spinType string) (*models.SettlementResult, error) {
	var result *models.SettlementResult

	err := service.withinUserTransaction(ctx, user.ID, func(ctx context.Context, tx bun.Tx) error {
		if err := service.serviceEligibility.CheckSpin(ctx, tx, user.ID, spinType); err != nil {
			return err
		}

		wallet, err := service.getWallet(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		reward := float64(SpinReward(service.random))

		// the spin-point debit and the reward credit share the
		// transaction so points can never be spent without a reward row
		if spinType == models.SPIN_TYPE_PAID {
			wallet.SpinPoints -= PAID_SPIN_COST
		}
		wallet.Balance += reward
		wallet.TotalEarnings += reward
		if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		transaction := &models.Transaction{
			UserID:      user.ID,
			Type:        models.TRANSACTION_SPIN_REWARD,
			Amount:      reward,
			Description: fmt.Sprintf("Spin reward (%s)", spinType),
			CreatedAt:   time.Now(),
		}
		if err := datastore.InsertTransaction(ctx, tx, transaction); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		err = datastore.InsertSpinHistory(ctx, tx, &models.SpinHistory{
			UserID:       user.ID,
			RewardAmount: reward,
			SpinType:     spinType,
			CreatedAt:    time.Now(),
		})
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		result = &models.SettlementResult{
			Reward:        reward,
			NewBalance:    wallet.Balance,
			TransactionID: transaction.ID,
			SpinType:      spinType,
			Message:       fmt.Sprintf("You won %.0f points!", reward),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.afterSettlement(user.ID, result.Reward)
	return result, nil
}

func (service *ServiceSettlement) SettleQuiz(ctx context.Context, user *models.User, answers []models.QuizAnswer) (*models.SettlementResult, error) {
	if err := service.serviceEligibility.CheckQuiz(answers); err != nil {
		return nil, err
	}

	correctCount := 0
	for _, answer := range answers {
		correctAnswer, err := service.serviceQuiz.GetCorrectAnswer(ctx, answer.QuestionID)
		if err != nil {
			// unknown question ids are skipped, not fatal
			continue
		}

		if correctAnswer == answer.Answer {
			correctCount++
		}
	}

	totalQuestions := len(answers)
	score := QuizScore(correctCount, totalQuestions)
	reward := QuizReward(correctCount)

	var result *models.SettlementResult

	err := service.withinUserTransaction(ctx, user.ID, func(ctx context.Context, tx bun.Tx) error {
		wallet, err := service.getWallet(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		if reward > 0 {
			wallet.Balance += reward
			wallet.TotalEarnings += reward
			if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}
		}

		transaction := &models.Transaction{
			UserID:      user.ID,
			Type:        models.TRANSACTION_QUIZ_REWARD,
			Amount:      reward,
			Description: fmt.Sprintf("Quiz reward: %d/%d correct", correctCount, totalQuestions),
			CreatedAt:   time.Now(),
		}
		if err := datastore.InsertTransaction(ctx, tx, transaction); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		err = datastore.InsertQuizAttempt(ctx, tx, &models.QuizAttempt{
			UserID:         user.ID,
			Score:          score,
			TotalQuestions: totalQuestions,
			RewardEarned:   reward,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		result = &models.SettlementResult{
			Reward:         reward,
			NewBalance:     wallet.Balance,
			TransactionID:  transaction.ID,
			Score:          score,
			CorrectAnswers: correctCount,
			TotalQuestions: totalQuestions,
			Message:        fmt.Sprintf("You scored %d%% and earned %.0f points!", score, reward),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.afterSettlement(user.ID, result.Reward)
	return result, nil
}

func (service *ServiceSettlement) SettleNumberGame(ctx context.Context, user *models.User, guess int) (*models.SettlementResult, error) {
	if err := service.serviceEligibility.CheckNumberGame(guess); err != nil {
		return nil, err
	}

	drawn := NumberGameDraw(service.random)
	won := guess == drawn
	reward := NumberGameReward(guess, drawn)

	var result *models.SettlementResult

	err := service.withinUserTransaction(ctx, user.ID, func(ctx context.Context, tx bun.Tx) error {
		wallet, err := service.getWallet(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		var transactionID int64
		if won {
			wallet.Balance += reward
			wallet.TotalEarnings += reward
			if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}

			transaction := &models.Transaction{
				UserID:      user.ID,
				Type:        models.TRANSACTION_GAME_REWARD,
				Amount:      reward,
				Description: "Number game win",
				CreatedAt:   time.Now(),
			}
			if err := datastore.InsertTransaction(ctx, tx, transaction); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}
			transactionID = transaction.ID
		}

		err = datastore.InsertNumberGameAttempt(ctx, tx, &models.NumberGameAttempt{
			UserID:        user.ID,
			GuessedNumber: guess,
			CorrectNumber: drawn,
			Won:           won,
			RewardEarned:  reward,
			CreatedAt:     time.Now(),
		})
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		message := fmt.Sprintf("Sorry, the correct number was %d.", drawn)
		if won {
			message = fmt.Sprintf("Congratulations! You won %.0f points!", reward)
		}

		result = &models.SettlementResult{
			Reward:        reward,
			NewBalance:    wallet.Balance,
			TransactionID: transactionID,
			CorrectNumber: drawn,
			Won:           won,
			Message:       message,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.afterSettlement(user.ID, result.Reward)
	return result, nil
}

func (service *ServiceSettlement) SettleVideoClaim(ctx context.Context, user *models.User, videoID int64) (*models.SettlementResult, error) {
	var result *models.SettlementResult

	err := service.withinUserTransaction(ctx, user.ID, func(ctx context.Context, tx bun.Tx) error {
		if err := service.serviceEligibility.CheckVideoClaim(ctx, tx, user.ID, videoID); err != nil {
			return err
		}

		video, err := datastore.GetVideoByID(ctx, tx, videoID)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		wallet, err := service.getWallet(ctx, tx, user.ID)
		if err != nil {
			return err
		}

		reward := VideoReward(video)
		wallet.Balance += reward
		wallet.TotalEarnings += reward
		if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		transaction := &models.Transaction{
			UserID:      user.ID,
			Type:        models.TRANSACTION_VIDEO_REWARD,
			Amount:      reward,
			Description: fmt.Sprintf("Video reward: %s", video.Title),
			CreatedAt:   time.Now(),
		}
		if err := datastore.InsertTransaction(ctx, tx, transaction); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		// the unique (user_id, video_id) index is the real exactly-once
		// guard; losing the race rolls back the credit above
		claimed, err := datastore.ClaimVideoWatch(ctx, tx, &models.VideoWatch{
			UserID:    user.ID,
			VideoID:   videoID,
			WatchedAt: time.Now(),
		})
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if claimed == 0 {
			return errorx.Wrap(errors.New("reward already claimed"), errorx.Invalid)
		}

		result = &models.SettlementResult{
			Reward:        reward,
			NewBalance:    wallet.Balance,
			TransactionID: transaction.ID,
			Message:       fmt.Sprintf("You earned %.0f points!", reward),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.afterSettlement(user.ID, result.Reward)
	return result, nil
}

// SettleDeposit credits a completed STK-push checkout. The status guard on
// the deposit row makes callback retries idempotent.
func (service *ServiceSettlement) SettleDeposit(ctx context.Context, userID int64, checkoutRequestID string) (*models.SettlementResult, error) {
	var result *models.SettlementResult

	err := service.withinUserTransaction(ctx, userID, func(ctx context.Context, tx bun.Tx) error {
		deposit, err := datastore.GetDepositByCheckoutID(ctx, tx, checkoutRequestID)
		if errors.Is(err, sql.ErrNoRows) {
			return errorx.Wrap(errors.New("deposit not found"), errorx.NotExist)
		}
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		updated, err := datastore.UpdateDepositStatus(ctx, tx, checkoutRequestID, models.DEPOSIT_PENDING, models.DEPOSIT_COMPLETED)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if updated == 0 {
			return errorx.Wrap(errors.New("deposit already processed"), errorx.Invalid)
		}

		wallet, err := service.getWallet(ctx, tx, userID)
		if err != nil {
			return err
		}

		wallet.Balance += deposit.Amount
		if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		transaction := &models.Transaction{
			UserID:      userID,
			Type:        models.TRANSACTION_DEPOSIT,
			Amount:      deposit.Amount,
			Description: fmt.Sprintf("M-Pesa deposit (%s)", checkoutRequestID),
			CreatedAt:   time.Now(),
		}
		if err := datastore.InsertTransaction(ctx, tx, transaction); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		result = &models.SettlementResult{
			Reward:        deposit.Amount,
			NewBalance:    wallet.Balance,
			TransactionID: transaction.ID,
			Message:       "Deposit completed",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = service.cache.Delete(ctx, DBKeyWallet(userID))
	return result, nil
}

// SettleWithdrawalApproval debits the wallet for an approved withdrawal.
// Withdrawals are the only path where balance decreases.
func (service *ServiceSettlement) SettleWithdrawalApproval(ctx context.Context, withdrawal *models.Withdrawal) (*models.SettlementResult, error) {
	var result *models.SettlementResult

	err := service.withinUserTransaction(ctx, withdrawal.UserID, func(ctx context.Context, tx bun.Tx) error {
		updated, err := datastore.UpdateWithdrawalStatus(ctx, tx, withdrawal.ID, models.WITHDRAWAL_PENDING, models.WITHDRAWAL_APPROVED)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		if updated == 0 {
			return errorx.Wrap(errors.New("withdrawal already processed"), errorx.Invalid)
		}

		wallet, err := service.getWallet(ctx, tx, withdrawal.UserID)
		if err != nil {
			return err
		}

		if wallet.Balance < withdrawal.Amount {
			return errorx.Wrap(errors.New("insufficient balance"), errorx.Invalid)
		}

		wallet.Balance -= withdrawal.Amount
		if err := datastore.UpdateWalletBalances(ctx, tx, wallet); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		transaction := &models.Transaction{
			UserID:      withdrawal.UserID,
			Type:        models.TRANSACTION_WITHDRAWAL,
			Amount:      -withdrawal.Amount,
			Description: fmt.Sprintf("Withdrawal to %s", withdrawal.Phone),
			CreatedAt:   time.Now(),
		}
		if err := datastore.InsertTransaction(ctx, tx, transaction); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}

		result = &models.SettlementResult{
			Reward:        -withdrawal.Amount,
			NewBalance:    wallet.Balance,
			TransactionID: transaction.ID,
			Message:       "Withdrawal approved",
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	_ = service.cache.Delete(ctx, DBKeyWallet(withdrawal.UserID))
	return result, nil
}

func (service *ServiceSettlement) ListSpinHistory(ctx context.Context, userID int64, limit int) ([]*models.SpinHistory, error) {
	if limit <= 0 {
		limit = HISTORY_DEFAULT_LIMIT
	}

	history, err := datastore.ListSpinHistory(ctx, service.postgresDB, userID, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return history, nil
}

func (service *ServiceSettlement) ListNumberGameAttempts(ctx context.Context, userID int64, limit int) ([]*models.NumberGameAttempt, error) {
	if limit <= 0 {
		limit = HISTORY_DEFAULT_LIMIT
	}

	attempts, err := datastore.ListNumberGameAttempts(ctx, service.postgresDB, userID, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return attempts, nil
}

// afterSettlement runs the non-transactional tail: wallet cache
// invalidation, live leaderboard bumps and referral propagation. Failures
// here are logged and swallowed; the settlement already committed, and the
// leaderboard converges on the next cron rebuild anyway.
func (service *ServiceSettlement) afterSettlement(userID int64, reward float64) {
	_ = service.cache.Delete(context.Background(), DBKeyWallet(userID))

	if reward <= 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := service.serviceLeaderboard.RecordEarning(ctx, userID, reward); err != nil {
			log.Printf("leaderboard bump for user %d: %v", userID, err)
		}

		if err := service.serviceReferral.Propagate(ctx, userID, reward); err != nil {
			log.Printf("referral propagation for user %d: %v", userID, err)
		}
	}()
}
