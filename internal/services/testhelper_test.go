package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/pkg/caching"
	"earnhub/internal/pkg/locker"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// fixedRandom makes every draw deterministic: IntN returns v % n.
type fixedRandom struct {
	v int
}

func (f fixedRandom) IntN(n int) int {
	return f.v % n
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	sqldb, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// a single connection serializes writers, matching postgres row locks
	// closely enough for these tests
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	creates := []func(context.Context, *bun.DB) error{
		datastore.CreateTableUser,
		datastore.CreateTableWallet,
		datastore.CreateTableTransaction,
		datastore.CreateTableSpinHistory,
		datastore.CreateTableQuizQuestion,
		datastore.CreateTableQuizAttempt,
		datastore.CreateTableNumberGameAttempt,
		datastore.CreateTableVideo,
		datastore.CreateTableVideoWatch,
		datastore.CreateTableReferral,
		datastore.CreateTableReferralSetting,
		datastore.CreateTableWithdrawal,
		datastore.CreateTableDeposit,
		datastore.CreateTableConfig,
	}
	for _, create := range creates {
		if err := create(ctx, db); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	return db
}

func newTestContainer(t *testing.T, db *bun.DB, random RandomSource) *do.Injector {
	t.Helper()

	injector := do.New()

	do.ProvideValue(injector, db)
	do.Provide(injector, func(i *do.Injector) (caching.Cache, error) {
		return caching.NewCacheLocal(), nil
	})
	do.Provide(injector, func(i *do.Injector) (locker.Locker, error) {
		return locker.NewKeyedMutexLocker(), nil
	})
	do.ProvideValue(injector, random)
	do.ProvideValue(injector, MpesaConfig{})

	mr := miniredis.RunT(t)
	do.ProvideNamedValue[redis.UniversalClient](injector, "redis-db", redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	do.Provide(injector, func(i *do.Injector) (*ServiceEligibility, error) {
		return NewServiceEligibility(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceConfig, error) {
		return NewServiceConfig(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceQuiz, error) {
		return NewServiceQuiz(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceReferral, error) {
		return NewServiceReferral(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceSettlement, error) {
		return NewServiceSettlement(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceUser, error) {
		return NewServiceUser(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceWallet, error) {
		return NewServiceWallet(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceVideo, error) {
		return NewServiceVideo(injector)
	})
	do.Provide(injector, func(i *do.Injector) (*ServiceLeaderboard, error) {
		return NewServiceLeaderboard(injector)
	})

	return injector
}

func createTestUser(t *testing.T, db *bun.DB, email string, referredBy *int64) *models.User {
	t.Helper()

	ctx := context.Background()
	user := &models.User{
		Email:        email,
		FullName:     email,
		ReferralCode: "code-" + email,
		ReferredBy:   referredBy,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := datastore.CreateUser(ctx, db, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	err := datastore.InsertWallet(ctx, db, &models.Wallet{
		UserID:    user.ID,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	return user
}

func setSpinPoints(t *testing.T, db *bun.DB, userID int64, points int) {
	t.Helper()

	ctx := context.Background()
	wallet, err := datastore.GetWallet(ctx, db, userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}

	wallet.SpinPoints = points
	if err := datastore.UpdateWalletBalances(ctx, db, wallet); err != nil {
		t.Fatalf("update wallet: %v", err)
	}
}

func mustWallet(t *testing.T, db *bun.DB, userID int64) *models.Wallet {
	t.Helper()

	wallet, err := datastore.GetWallet(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return wallet
}
