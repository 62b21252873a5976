package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceVideo struct {
	container  *do.Injector
	postgresDB *bun.DB
}

func NewServiceVideo(container *do.Injector) (*ServiceVideo, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	return &ServiceVideo{container, postgresDB}, nil
}

// ListVideos returns active videos with the caller's claim state folded in.
func (service *ServiceVideo) ListVideos(ctx context.Context, userID int64) ([]*models.Video, error) {
	videos, err := datastore.ListActiveVideos(ctx, service.postgresDB)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	watches, err := datastore.ListVideoWatches(ctx, service.postgresDB, userID)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	claimed := make(map[int64]bool, len(watches))
	for _, watch := range watches {
		claimed[watch.VideoID] = watch.RewardClaimed
	}
	for _, video := range videos {
		video.RewardClaimed = claimed[video.ID]
	}

	return videos, nil
}

// TrackView records a watch without paying out; the claim endpoint settles
// the reward separately.
func (service *ServiceVideo) TrackView(ctx context.Context, userID int64, videoID int64) error {
	video, err := datastore.GetVideoByID(ctx, service.postgresDB, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return errorx.Wrap(errors.New("video not found"), errorx.NotExist)
	}
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	if !video.IsActive {
		return errorx.Wrap(errors.New("video is not available"), errorx.NotExist)
	}

	if err := datastore.IncrementVideoViews(ctx, service.postgresDB, videoID); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	err = datastore.InsertVideoWatch(ctx, service.postgresDB, &models.VideoWatch{
		UserID:    userID,
		VideoID:   videoID,
		WatchedAt: time.Now(),
	})
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	return nil
}

// CreateVideo is admin-only.
func (service *ServiceVideo) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.Title == "" || video.VideoURL == "" {
		return errorx.Wrap(errors.New("title and video_url are required"), errorx.Validation)
	}
	if video.RewardPoints <= 0 {
		video.RewardPoints = models.DEFAULT_VIDEO_REWARD_POINTS
	}
	video.IsActive = true
	video.CreatedAt = time.Now()

	if err := datastore.InsertVideo(ctx, service.postgresDB, video); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}
	return nil
}
