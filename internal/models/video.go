package models

import (
	"time"

	"github.com/uptrace/bun"
)

const DEFAULT_VIDEO_REWARD_POINTS = 2

type Video struct {
	bun.BaseModel `bun:"table:video"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Title         string    `bun:"title" json:"title"`
	Description   string    `bun:"description" json:"description"`
	VideoURL      string    `bun:"video_url" json:"video_url"`
	ThumbnailURL  string    `bun:"thumbnail_url" json:"thumbnail_url"`
	Duration      int       `bun:"duration" json:"duration"`
	Views         int       `bun:"views" json:"views"`
	Likes         int       `bun:"likes" json:"likes"`
	RewardPoints  int       `bun:"reward_points,default:2" json:"reward_points"`
	IsActive      bool      `bun:"is_active" json:"-"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at" json:"updated_at"`

	RewardClaimed bool `bun:"-" json:"reward_claimed"`
}

// VideoWatch enforces the at-most-one-claim-per-(user,video) rule via a
// unique index on (user_id, video_id).
type VideoWatch struct {
	bun.BaseModel `bun:"table:video_watch"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64     `bun:"user_id" json:"user_id"`
	VideoID       int64     `bun:"video_id" json:"video_id"`
	WatchedAt     time.Time `bun:"watched_at,default:current_timestamp" json:"watched_at"`
	RewardClaimed bool      `bun:"reward_claimed" json:"reward_claimed"`
}
