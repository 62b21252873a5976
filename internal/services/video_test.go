package services

import (
	"context"
	"testing"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/samber/do"
)

func TestTrackViewAndListVideos(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	serviceVideo := do.MustInvoke[*ServiceVideo](container)
	user := createTestUser(t, db, "viewer@example.com", nil)
	ctx := context.Background()

	video := &models.Video{Title: "intro", VideoURL: "https://example.com/v/1", IsActive: true, CreatedAt: time.Now()}
	if err := datastore.InsertVideo(ctx, db, video); err != nil {
		t.Fatal(err)
	}
	hidden := &models.Video{Title: "hidden", VideoURL: "https://example.com/v/2", IsActive: false, CreatedAt: time.Now()}
	if err := datastore.InsertVideo(ctx, db, hidden); err != nil {
		t.Fatal(err)
	}

	if err := serviceVideo.TrackView(ctx, user.ID, video.ID); err != nil {
		t.Fatalf("TrackView: %v", err)
	}
	// repeat views count, the watch row stays single
	if err := serviceVideo.TrackView(ctx, user.ID, video.ID); err != nil {
		t.Fatalf("TrackView repeat: %v", err)
	}

	got, err := datastore.GetVideoByID(ctx, db, video.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 2 {
		t.Errorf("views = %d, want 2", got.Views)
	}

	if err := serviceVideo.TrackView(ctx, user.ID, hidden.ID); err == nil {
		t.Error("tracking an inactive video should fail")
	}

	videos, err := serviceVideo.ListVideos(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("videos = %d, want 1 active", len(videos))
	}
	if videos[0].RewardClaimed {
		t.Error("watch without claim should not show as claimed")
	}
}

func TestListVideosShowsClaimedFlag(t *testing.T) {
	db := newTestDB(t)
	container := newTestContainer(t, db, fixedRandom{0})
	serviceVideo := do.MustInvoke[*ServiceVideo](container)
	settlement := do.MustInvoke[*ServiceSettlement](container)
	user := createTestUser(t, db, "viewer@example.com", nil)
	ctx := context.Background()

	video := &models.Video{Title: "intro", VideoURL: "https://example.com/v/1", RewardPoints: 3, IsActive: true, CreatedAt: time.Now()}
	if err := datastore.InsertVideo(ctx, db, video); err != nil {
		t.Fatal(err)
	}

	if _, err := settlement.SettleVideoClaim(ctx, user, video.ID); err != nil {
		t.Fatalf("SettleVideoClaim: %v", err)
	}

	videos, err := serviceVideo.ListVideos(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 || !videos[0].RewardClaimed {
		t.Errorf("claimed flag missing: %+v", videos)
	}
}
