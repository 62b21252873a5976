package services

import (
	"context"
	"errors"
	"log"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/datastore/redis_store"
	"earnhub/internal/models"
	"earnhub/internal/pkg"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

type ServiceLeaderboard struct {
	container     *do.Injector
	postgresDB    *bun.DB
	redisDB       redis.UniversalClient
	serviceConfig *ServiceConfig
}

func NewServiceLeaderboard(container *do.Injector) (*ServiceLeaderboard, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	redisDB, err := do.InvokeNamed[redis.UniversalClient](container, "redis-db")
	if err != nil {
		return nil, err
	}

	serviceConfig, err := do.Invoke[*ServiceConfig](container)
	if err != nil {
		return nil, err
	}

	return &ServiceLeaderboard{container, postgresDB, redisDB, serviceConfig}, nil
}

func validBoard(board string) bool {
	return board == LEADERBOARD_OVERALL || board == LEADERBOARD_WEEKLY
}

// RecordEarning bumps the live ZSETs so fresh rewards rank between cron
// rebuilds. The enriched snapshot is left alone; it expires on its own TTL.
func (service *ServiceLeaderboard) RecordEarning(ctx context.Context, userID int64, amount float64) error {
	for _, board := range []string{LEADERBOARD_OVERALL, LEADERBOARD_WEEKLY} {
		if err := redis_store.IncrLeaderboardScore(ctx, service.redisDB, board, userID, amount); err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
	}

	return nil
}

// GetLeaderboard serves the cron-built snapshot, falling back to the raw
// ZSET when no snapshot exists yet. The caller's own rank rides along even
// when they are outside the top slice.
func (service *ServiceLeaderboard) GetLeaderboard(ctx context.Context, board string, userID int64) (*models.LeaderboardResponse, error) {
	if !validBoard(board) {
		return nil, errorx.Wrap(errors.New("unknown leaderboard"), errorx.Validation)
	}

	items, err := redis_store.GetLeaderboardSnapshot(ctx, service.redisDB, board)
	if errors.Is(err, redis.Nil) {
		items, err = service.buildSnapshot(ctx, board)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	response := &models.LeaderboardResponse{Items: items}

	if userID > 0 {
		me, err := redis_store.GetLeaderboardRank(ctx, service.redisDB, board, userID)
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, errorx.Wrap(err, errorx.Service)
		}
		if me != nil {
			user, err := datastore.GetUserByID(ctx, service.postgresDB, userID)
			if err == nil {
				me.FullName = user.FullName
			}
			response.Me = me
		}
	}

	return response, nil
}

// Rebuild repopulates a board's ZSET from the ledger and refreshes the
// snapshot. Invoked by the cron binary.
func (service *ServiceLeaderboard) Rebuild(ctx context.Context, board string) error {
	if !validBoard(board) {
		return errorx.Wrap(errors.New("unknown leaderboard"), errorx.Validation)
	}

	limit, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADERBOARD_LIMIT, LEADERBOARD_DEFAULT_LIMIT)
	if err != nil {
		limit = LEADERBOARD_DEFAULT_LIMIT
	}

	if err := redis_store.ClearLeaderboard(ctx, service.redisDB, board); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	switch board {
	case LEADERBOARD_OVERALL:
		wallets, err := datastore.ListTopEarners(ctx, service.postgresDB, limit, 0)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		for _, wallet := range wallets {
			if err := redis_store.SetLeaderboardScore(ctx, service.redisDB, board, wallet.UserID, wallet.TotalEarnings); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}
		}
	case LEADERBOARD_WEEKLY:
		earnings, err := datastore.SumEarningsByUserFromTime(ctx, service.postgresDB, pkg.StartOfWeek(time.Now()), limit, 0)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		for _, earning := range earnings {
			if err := redis_store.SetLeaderboardScore(ctx, service.redisDB, board, earning.UserID, earning.Total); err != nil {
				return errorx.Wrap(err, errorx.Service)
			}
		}
	}

	if _, err := service.buildSnapshot(ctx, board); err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	log.Printf("leaderboard %s rebuilt", board)
	return nil
}

func (service *ServiceLeaderboard) buildSnapshot(ctx context.Context, board string) ([]models.LeaderboardItem, error) {
	limit, err := service.serviceConfig.GetIntConfig(ctx, CONFIG_LEADERBOARD_LIMIT, LEADERBOARD_DEFAULT_LIMIT)
	if err != nil {
		limit = LEADERBOARD_DEFAULT_LIMIT
	}

	items, err := redis_store.GetTopLeaderboard(ctx, service.redisDB, board, limit)
	if err != nil {
		return nil, err
	}

	for i := range items {
		user, err := datastore.GetUserByID(ctx, service.postgresDB, items[i].UserID)
		if err != nil {
			continue
		}
		items[i].FullName = user.FullName
	}

	if err := redis_store.SetLeaderboardSnapshot(ctx, service.redisDB, board, items, CACHE_TTL_5_MINS); err != nil {
		return nil, err
	}

	return items, nil
}
