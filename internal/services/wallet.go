package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/pkg/caching"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceWallet struct {
	container         *do.Injector
	postgresDB        *bun.DB
	cache             caching.Cache
	serviceSettlement *ServiceSettlement
}

func NewServiceWallet(container *do.Injector) (*ServiceWallet, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	cache, err := do.Invoke[caching.Cache](container)
	if err != nil {
		return nil, err
	}

	serviceSettlement, err := do.Invoke[*ServiceSettlement](container)
	if err != nil {
		return nil, err
	}

	return &ServiceWallet{container, postgresDB, cache, serviceSettlement}, nil
}

func (service *ServiceWallet) GetWallet(ctx context.Context, userID int64) (*models.Wallet, error) {
	wallet, err := caching.UseCache(ctx, service.cache, DBKeyWallet(userID), CACHE_TTL_1_MIN, func() (*models.Wallet, error) {
		return datastore.GetWallet(ctx, service.postgresDB, userID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(ErrWalletMissing, errorx.Service)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return wallet, nil
}

func (service *ServiceWallet) ListTransactions(ctx context.Context, userID int64, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = HISTORY_DEFAULT_LIMIT
	}

	transactions, err := datastore.ListTransactionsByUser(ctx, service.postgresDB, userID, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return transactions, nil
}

// Reconcile checks the ledger invariant: wallet.balance must equal the sum
// of the user's transaction amounts. A non-zero drift means a settlement
// escaped its transaction somewhere.
func (service *ServiceWallet) Reconcile(ctx context.Context, userID int64) (float64, error) {
	wallet, err := datastore.GetWallet(ctx, service.postgresDB, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errorx.Wrap(ErrWalletMissing, errorx.Service)
	}
	if err != nil {
		return 0, errorx.Wrap(err, errorx.Service)
	}

	sum, err := datastore.SumTransactionAmounts(ctx, service.postgresDB, userID)
	if err != nil {
		return 0, errorx.Wrap(err, errorx.Service)
	}

	drift := wallet.Balance - sum
	if math.Abs(drift) < 1e-9 {
		drift = 0
	}
	return drift, nil
}

func (service *ServiceWallet) RequestWithdrawal(ctx context.Context, userID int64, request *models.WithdrawalRequest) (*models.Withdrawal, error) {
	if request.Amount <= 0 {
		return nil, errorx.Wrap(errors.New("amount must be positive"), errorx.Validation)
	}
	if request.Phone == "" {
		return nil, errorx.Wrap(errors.New("phone is required"), errorx.Validation)
	}

	wallet, err := service.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	// fail fast; the authoritative balance check happens again at approval
	if wallet.Balance < request.Amount {
		return nil, errorx.Wrap(errors.New("insufficient balance"), errorx.Invalid)
	}

	withdrawal := &models.Withdrawal{
		UserID:    userID,
		Amount:    request.Amount,
		Phone:     request.Phone,
		Status:    models.WITHDRAWAL_PENDING,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := datastore.InsertWithdrawal(ctx, service.postgresDB, withdrawal); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return withdrawal, nil
}

func (service *ServiceWallet) ListWithdrawals(ctx context.Context, userID int64, limit int) ([]*models.Withdrawal, error) {
	if limit <= 0 {
		limit = HISTORY_DEFAULT_LIMIT
	}

	withdrawals, err := datastore.ListWithdrawalsByUser(ctx, service.postgresDB, userID, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return withdrawals, nil
}

func (service *ServiceWallet) ListPendingWithdrawals(ctx context.Context, limit int) ([]*models.Withdrawal, error) {
	if limit <= 0 {
		limit = HISTORY_DEFAULT_LIMIT
	}

	withdrawals, err := datastore.ListWithdrawalsByStatus(ctx, service.postgresDB, models.WITHDRAWAL_PENDING, limit)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	return withdrawals, nil
}

func (service *ServiceWallet) ApproveWithdrawal(ctx context.Context, withdrawalID int64) (*models.SettlementResult, error) {
	withdrawal, err := datastore.GetWithdrawalByID(ctx, service.postgresDB, withdrawalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("withdrawal not found"), errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return service.serviceSettlement.SettleWithdrawalApproval(ctx, withdrawal)
}

func (service *ServiceWallet) RejectWithdrawal(ctx context.Context, withdrawalID int64) error {
	updated, err := datastore.UpdateWithdrawalStatus(ctx, service.postgresDB, withdrawalID, models.WITHDRAWAL_PENDING, models.WITHDRAWAL_REJECTED)
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if updated == 0 {
		return errorx.Wrap(errors.New("withdrawal already processed"), errorx.Invalid)
	}
	return nil
}
