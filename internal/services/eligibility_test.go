package services

import (
	"context"
	"testing"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
)

func TestCheckSpinFreeDailyLimit(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "spinner@example.com", nil)
	eligibility := &ServiceEligibility{}
	ctx := context.Background()

	for i := 0; i < FREE_SPIN_DAILY_LIMIT; i++ {
		if err := eligibility.CheckSpin(ctx, db, user.ID, models.SPIN_TYPE_FREE); err != nil {
			t.Fatalf("spin %d should be allowed: %v", i+1, err)
		}
		err := datastore.InsertSpinHistory(ctx, db, &models.SpinHistory{
			UserID:    user.ID,
			SpinType:  models.SPIN_TYPE_FREE,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := eligibility.CheckSpin(ctx, db, user.ID, models.SPIN_TYPE_FREE); err == nil {
		t.Fatalf("spin %d should be denied", FREE_SPIN_DAILY_LIMIT+1)
	}
}

func TestCheckSpinFreeIgnoresPaidSpins(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "spinner@example.com", nil)
	eligibility := &ServiceEligibility{}
	ctx := context.Background()

	// paid spins today must not count against the free allowance
	for i := 0; i < FREE_SPIN_DAILY_LIMIT+2; i++ {
		err := datastore.InsertSpinHistory(ctx, db, &models.SpinHistory{
			UserID:    user.ID,
			SpinType:  models.SPIN_TYPE_PAID,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := eligibility.CheckSpin(ctx, db, user.ID, models.SPIN_TYPE_FREE); err != nil {
		t.Fatalf("free spin should be allowed: %v", err)
	}
}

func TestCheckSpinFreeLimitResetsNextDay(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "spinner@example.com", nil)
	eligibility := &ServiceEligibility{}
	ctx := context.Background()

	for i := 0; i < FREE_SPIN_DAILY_LIMIT; i++ {
		err := datastore.InsertSpinHistory(ctx, db, &models.SpinHistory{
			UserID:    user.ID,
			SpinType:  models.SPIN_TYPE_FREE,
			CreatedAt: time.Now().AddDate(0, 0, -1),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if err := eligibility.CheckSpin(ctx, db, user.ID, models.SPIN_TYPE_FREE); err != nil {
		t.Fatalf("yesterday's spins should not count: %v", err)
	}
}

func TestCheckSpinPaid(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "spinner@example.com", nil)
	eligibility := &ServiceEligibility{}
	ctx := context.Background()

	setSpinPoints(t, db, user.ID, PAID_SPIN_COST-1)
	if err := eligibility.CheckSpin(ctx, db, user.ID, models.SPIN_TYPE_PAID); err == nil {
		t.Fatal("paid spin with 9 points should be denied")
	}

	setSpinPoints(t, db, user.ID, PAID_SPIN_COST)
	if err := eligibility.CheckSpin(ctx, db, user.ID, models.SPIN_TYPE_PAID); err != nil {
		t.Fatalf("paid spin with exactly 10 points should be allowed: %v", err)
	}
}

func TestCheckSpinInvalidType(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "spinner@example.com", nil)
	eligibility := &ServiceEligibility{}

	if err := eligibility.CheckSpin(context.Background(), db, user.ID, "mega"); err == nil {
		t.Fatal("unknown spin type should be rejected")
	}
}

func TestCheckQuiz(t *testing.T) {
	eligibility := &ServiceEligibility{}

	if err := eligibility.CheckQuiz(nil); err == nil {
		t.Fatal("empty submission should be rejected")
	}
	if err := eligibility.CheckQuiz([]models.QuizAnswer{{QuestionID: 1, Answer: "a"}}); err != nil {
		t.Fatalf("non-empty submission should pass: %v", err)
	}
}

func TestCheckNumberGame(t *testing.T) {
	eligibility := &ServiceEligibility{}

	for _, guess := range []int{0, -1, 101} {
		if err := eligibility.CheckNumberGame(guess); err == nil {
			t.Errorf("guess %d should be rejected", guess)
		}
	}
	for _, guess := range []int{1, 50, 100} {
		if err := eligibility.CheckNumberGame(guess); err != nil {
			t.Errorf("guess %d should pass: %v", guess, err)
		}
	}
}

func TestCheckVideoClaim(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "viewer@example.com", nil)
	eligibility := &ServiceEligibility{}
	ctx := context.Background()

	if err := eligibility.CheckVideoClaim(ctx, db, user.ID, 999); err == nil {
		t.Fatal("unknown video should be rejected")
	}

	video := &models.Video{Title: "intro", VideoURL: "https://example.com/v/1", IsActive: true, CreatedAt: time.Now()}
	if err := datastore.InsertVideo(ctx, db, video); err != nil {
		t.Fatal(err)
	}

	if err := eligibility.CheckVideoClaim(ctx, db, user.ID, video.ID); err != nil {
		t.Fatalf("unclaimed video should pass: %v", err)
	}

	if _, err := datastore.ClaimVideoWatch(ctx, db, &models.VideoWatch{UserID: user.ID, VideoID: video.ID, WatchedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	if err := eligibility.CheckVideoClaim(ctx, db, user.ID, video.ID); err == nil {
		t.Fatal("claimed video should be rejected")
	}
}
