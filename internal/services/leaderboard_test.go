package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
)

func boardScore(t *testing.T, redisDB redis.UniversalClient, board string, userID int64) (float64, bool) {
	t.Helper()

	score, err := redisDB.ZScore(context.Background(), "leaderboard:"+board, strconv.FormatInt(userID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false
	}
	if err != nil {
		t.Fatalf("zscore: %v", err)
	}
	return score, true
}

func TestRecordEarningBumpsBothBoards(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	leaderboard := do.MustInvoke[*ServiceLeaderboard](container)
	redisDB := do.MustInvokeNamed[redis.UniversalClient](container, "redis-db")
	user := createTestUser(t, db, "board@example.com", nil)
	ctx := context.Background()

	if err := leaderboard.RecordEarning(ctx, user.ID, 42); err != nil {
		t.Fatalf("RecordEarning: %v", err)
	}
	if err := leaderboard.RecordEarning(ctx, user.ID, 8); err != nil {
		t.Fatalf("RecordEarning: %v", err)
	}

	for _, board := range []string{LEADERBOARD_OVERALL, LEADERBOARD_WEEKLY} {
		score, ok := boardScore(t, redisDB, board, user.ID)
		if !ok || score != 50 {
			t.Errorf("%s score = %v (present=%v), want 50", board, score, ok)
		}
	}
}

func TestSettleSpinBumpsLeaderboard(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{41})
	settlement := do.MustInvoke[*ServiceSettlement](container)
	redisDB := do.MustInvokeNamed[redis.UniversalClient](container, "redis-db")
	user := createTestUser(t, db, "live@example.com", nil)

	result, err := settlement.SettleSpin(context.Background(), user, models.SPIN_TYPE_FREE)
	if err != nil {
		t.Fatalf("SettleSpin: %v", err)
	}

	// the bump runs off the settlement path, so give it a moment
	deadline := time.Now().Add(5 * time.Second)
	for {
		score, ok := boardScore(t, redisDB, LEADERBOARD_OVERALL, user.ID)
		if ok {
			if score != result.Reward {
				t.Fatalf("overall score = %v, want %v", score, result.Reward)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("leaderboard never saw the settled reward")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPropagateBumpsAncestorBoard(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	referral := do.MustInvoke[*ServiceReferral](container)
	redisDB := do.MustInvokeNamed[redis.UniversalClient](container, "redis-db")
	seedReferralSettings(t, db, map[int]float64{1: 10})

	referrer := createTestUser(t, db, "up@example.com", nil)
	earner := createTestUser(t, db, "down@example.com", &referrer.ID)

	if err := referral.Propagate(context.Background(), earner.ID, 100); err != nil {
		t.Fatalf("Propagate: %v", err)
	}

	score, ok := boardScore(t, redisDB, LEADERBOARD_OVERALL, referrer.ID)
	if !ok || score != 10 {
		t.Errorf("referrer score = %v (present=%v), want 10", score, ok)
	}
}

func TestRebuildOverall(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	leaderboard := do.MustInvoke[*ServiceLeaderboard](container)
	ctx := context.Background()

	first := createTestUser(t, db, "first@example.com", nil)
	second := createTestUser(t, db, "second@example.com", nil)
	for userID, total := range map[int64]float64{first.ID: 100, second.ID: 50} {
		wallet := mustWallet(t, db, userID)
		wallet.TotalEarnings = total
		if err := datastore.UpdateWalletBalances(ctx, db, wallet); err != nil {
			t.Fatal(err)
		}
	}

	if err := leaderboard.Rebuild(ctx, LEADERBOARD_OVERALL); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	response, err := leaderboard.GetLeaderboard(ctx, LEADERBOARD_OVERALL, second.ID)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if len(response.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(response.Items))
	}
	if response.Items[0].UserID != first.ID || response.Items[0].Score != 100 {
		t.Errorf("rank 1 = user %d score %v, want user %d score 100", response.Items[0].UserID, response.Items[0].Score, first.ID)
	}
	if response.Me == nil || response.Me.Rank != 2 || response.Me.Score != 50 {
		t.Errorf("me = %+v, want rank 2 score 50", response.Me)
	}
}
