package datastore

import (
	"context"

	"earnhub/internal/models"

	"github.com/uptrace/bun"
)

func CreateTableVideo(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.Video)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.Video)(nil)).Index("index_video_is_active").IfNotExists().Column("is_active").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func CreateTableVideoWatch(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().Model((*models.VideoWatch)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return err
	}

	_, err = db.NewCreateIndex().Model((*models.VideoWatch)(nil)).Index("index_video_watch_user_id_video_id").IfNotExists().Unique().Column("user_id", "video_id").Exec(ctx)
	if err != nil {
		return err
	}

	return nil
}

func InsertVideo(ctx context.Context, db bun.IDB, video *models.Video) error {
	_, err := db.NewInsert().Model(video).Exec(ctx)
	return err
}

func ListActiveVideos(ctx context.Context, db bun.IDB) ([]*models.Video, error) {
	var videos []*models.Video
	err := db.NewSelect().Model(&videos).
		Where("is_active = ?", true).
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return videos, nil
}

func GetVideoByID(ctx context.Context, db bun.IDB, videoID int64) (*models.Video, error) {
	var video models.Video
	err := db.NewSelect().Model(&video).Where("id = ?", videoID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return &video, nil
}

func IncrementVideoViews(ctx context.Context, db bun.IDB, videoID int64) error {
	_, err := db.NewUpdate().Model((*models.Video)(nil)).
		Set("views = views + 1").
		Where("id = ?", videoID).
		Exec(ctx)
	return err
}

func InsertVideoWatch(ctx context.Context, db bun.IDB, watch *models.VideoWatch) error {
	_, err := db.NewInsert().Model(watch).On("CONFLICT (user_id, video_id) DO NOTHING").Exec(ctx)
	return err
}

// ClaimVideoWatch marks the (user, video) watch as claimed. The unique index
// is the claim guard: the upsert touches nothing when a claimed row already
// exists, so the returned count is 0 for every claim but the first.
func ClaimVideoWatch(ctx context.Context, db bun.IDB, watch *models.VideoWatch) (int64, error) {
	watch.RewardClaimed = true
	res, err := db.NewInsert().Model(watch).
		On("CONFLICT (user_id, video_id) DO UPDATE").
		Set("reward_claimed = ?", true).
		Set("watched_at = ?", watch.WatchedAt).
		Where("video_watch.reward_claimed = ?", false).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func GetVideoWatch(ctx context.Context, db bun.IDB, userID int64, videoID int64) (*models.VideoWatch, error) {
	watch := &models.VideoWatch{}
	err := db.NewSelect().Model(watch).
		Where("user_id = ?", userID).
		Where("video_id = ?", videoID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	return watch, nil
}

func ListVideoWatches(ctx context.Context, db bun.IDB, userID int64) ([]*models.VideoWatch, error) {
	var watches []*models.VideoWatch
	err := db.NewSelect().Model(&watches).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		return nil, err
	}

	return watches, nil
}
