package services

import (
	"context"
	"testing"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/samber/do"
	"github.com/uptrace/bun"
)

func seedReferralSettings(t *testing.T, db *bun.DB, percentages map[int]float64, inactive ...int) {
	t.Helper()

	off := map[int]bool{}
	for _, level := range inactive {
		off[level] = true
	}

	ctx := context.Background()
	for level, percentage := range percentages {
		err := datastore.UpsertReferralSetting(ctx, db, &models.ReferralSetting{
			Level:                level,
			CommissionPercentage: percentage,
			IsActive:             !off[level],
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

// referralChain builds A <- B <- C <- earner and returns them in that order.
func referralChain(t *testing.T, db *bun.DB) (a, b, c, earner *models.User) {
	a = createTestUser(t, db, "a@example.com", nil)
	b = createTestUser(t, db, "b@example.com", &a.ID)
	c = createTestUser(t, db, "c@example.com", &b.ID)
	earner = createTestUser(t, db, "earner@example.com", &c.ID)
	return a, b, c, earner
}

func TestPropagateThreeLevels(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	a, b, c, earner := referralChain(t, db)
	seedReferralSettings(t, db, map[int]float64{1: 10, 2: 5, 3: 2})

	if err := referral.Propagate(context.Background(), earner.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	if got := mustWallet(t, db, c.ID).Balance; got != 10 {
		t.Errorf("level 1 commission = %v, want 10", got)
	}
	if got := mustWallet(t, db, b.ID).Balance; got != 5 {
		t.Errorf("level 2 commission = %v, want 5", got)
	}
	if got := mustWallet(t, db, a.ID).Balance; got != 2 {
		t.Errorf("level 3 commission = %v, want 2", got)
	}
	// the earner's own wallet is untouched by propagation
	if got := mustWallet(t, db, earner.ID).Balance; got != 0 {
		t.Errorf("earner balance = %v, want 0", got)
	}
}

func TestPropagateInactiveLevelSkipped(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	a, b, c, earner := referralChain(t, db)
	seedReferralSettings(t, db, map[int]float64{1: 10, 2: 5, 3: 2}, 2)

	if err := referral.Propagate(context.Background(), earner.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	if got := mustWallet(t, db, c.ID).Balance; got != 10 {
		t.Errorf("level 1 commission = %v, want 10", got)
	}
	if got := mustWallet(t, db, b.ID).Balance; got != 0 {
		t.Errorf("inactive level 2 commission = %v, want 0", got)
	}
	// the walk continues past the inactive level
	if got := mustWallet(t, db, a.ID).Balance; got != 2 {
		t.Errorf("level 3 commission = %v, want 2", got)
	}
}

func TestPropagateShortChain(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	seedReferralSettings(t, db, map[int]float64{1: 10, 2: 5, 3: 2})

	referrer := createTestUser(t, db, "solo-ref@example.com", nil)
	earner := createTestUser(t, db, "solo@example.com", &referrer.ID)

	if err := referral.Propagate(context.Background(), earner.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	if got := mustWallet(t, db, referrer.ID).Balance; got != 10 {
		t.Errorf("commission = %v, want 10", got)
	}
}

func TestPropagateNoReferrer(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	seedReferralSettings(t, db, map[int]float64{1: 10})

	earner := createTestUser(t, db, "orphan@example.com", nil)

	if err := referral.Propagate(context.Background(), earner.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
}

func TestPropagateZeroAmount(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	seedReferralSettings(t, db, map[int]float64{1: 10})

	referrer := createTestUser(t, db, "ref@example.com", nil)
	earner := createTestUser(t, db, "zero@example.com", &referrer.ID)

	if err := referral.Propagate(context.Background(), earner.ID, 0); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if got := mustWallet(t, db, referrer.ID).Balance; got != 0 {
		t.Errorf("commission on zero reward = %v, want 0", got)
	}
}

func TestPropagateCommissionRounding(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	seedReferralSettings(t, db, map[int]float64{1: 3})

	referrer := createTestUser(t, db, "ref@example.com", nil)
	earner := createTestUser(t, db, "rounder@example.com", &referrer.ID)

	// 3% of 33 = 0.99, kept as-is after rounding to cents
	if err := referral.Propagate(context.Background(), earner.ID, 33); err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if got := mustWallet(t, db, referrer.ID).Balance; got != 0.99 {
		t.Errorf("commission = %v, want 0.99", got)
	}
}

func TestPropagateWritesReferralBonusTransactions(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	_, _, c, earner := referralChain(t, db)
	seedReferralSettings(t, db, map[int]float64{1: 10, 2: 5, 3: 2})

	if err := referral.Propagate(context.Background(), earner.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	transactions, err := datastore.ListTransactionsByUser(context.Background(), db, c.ID, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(transactions))
	}
	if transactions[0].Type != models.TRANSACTION_REFERRAL_BONUS {
		t.Errorf("type = %q, want %q", transactions[0].Type, models.TRANSACTION_REFERRAL_BONUS)
	}
	if transactions[0].Amount != 10 {
		t.Errorf("amount = %v, want 10", transactions[0].Amount)
	}
}

func TestGetReferralStats(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	seedReferralSettings(t, db, map[int]float64{1: 10, 2: 5})
	ctx := context.Background()

	root := createTestUser(t, db, "root@example.com", nil)
	direct := createTestUser(t, db, "direct@example.com", &root.ID)
	if err := referral.CreateReferralEdges(ctx, db, direct.ID, root.ID); err != nil {
		t.Fatalf("CreateReferralEdges: %v", err)
	}
	grand := createTestUser(t, db, "grand@example.com", &direct.ID)
	if err := referral.CreateReferralEdges(ctx, db, grand.ID, direct.ID); err != nil {
		t.Fatalf("CreateReferralEdges: %v", err)
	}

	// 10% of 100 to direct, 5% of 100 to root through level 2
	if err := referral.Propagate(ctx, grand.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	stats, err := referral.GetReferralStats(ctx, root.ID)
	if err != nil {
		t.Fatalf("GetReferralStats: %v", err)
	}
	if stats.ReferralCode != root.ReferralCode {
		t.Errorf("referral code = %q, want %q", stats.ReferralCode, root.ReferralCode)
	}
	if stats.TotalReferred != 2 {
		t.Errorf("total referred = %d, want 2", stats.TotalReferred)
	}
	if stats.TotalEarned != 5 {
		t.Errorf("total earned = %v, want 5", stats.TotalEarned)
	}
	if len(stats.Levels) != 2 {
		t.Fatalf("levels = %d, want 2", len(stats.Levels))
	}
	if stats.Levels[0].Level != 1 || stats.Levels[0].Count != 1 || stats.Levels[0].CommissionEarned != 0 {
		t.Errorf("level 1 stats = %+v, want count 1 earned 0", stats.Levels[0])
	}
	if stats.Levels[1].Level != 2 || stats.Levels[1].Count != 1 || stats.Levels[1].CommissionEarned != 5 {
		t.Errorf("level 2 stats = %+v, want count 1 earned 5", stats.Levels[1])
	}
}

func TestCreateReferralEdges(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	a, b, c, _ := referralChain(t, db)
	ctx := context.Background()

	newcomer := createTestUser(t, db, "new@example.com", &c.ID)
	if err := referral.CreateReferralEdges(ctx, db, newcomer.ID, c.ID); err != nil {
		t.Fatalf("CreateReferralEdges: %v", err)
	}

	for i, referrer := range []*models.User{c, b, a} {
		edges, err := datastore.GetReferralsByReferrer(ctx, db, referrer.ID)
		if err != nil {
			t.Fatal(err)
		}

		found := false
		for _, edge := range edges {
			if edge.ReferredID == newcomer.ID && edge.Level == i+1 {
				found = true
			}
		}
		if !found {
			t.Errorf("missing level %d edge for referrer %d", i+1, referrer.ID)
		}
	}
}
