package redis_store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"earnhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

func dbKeyLeaderboard(board string) string {
	return fmt.Sprintf("leaderboard:%s", board)
}

func dbKeyLeaderboardSnapshot(board string) string {
	return fmt.Sprintf("leaderboard:%s:snapshot", board)
}

func SetLeaderboardScore(ctx context.Context, cmd redis.UniversalClient, board string, userID int64, score float64) error {
	return cmd.ZAdd(ctx, dbKeyLeaderboard(board), redis.Z{
		Score:  score,
		Member: strconv.FormatInt(userID, 10),
	}).Err()
}

func IncrLeaderboardScore(ctx context.Context, cmd redis.UniversalClient, board string, userID int64, delta float64) error {
	return cmd.ZIncrBy(ctx, dbKeyLeaderboard(board), delta, strconv.FormatInt(userID, 10)).Err()
}

func GetTopLeaderboard(ctx context.Context, cmd redis.UniversalClient, board string, num int) ([]models.LeaderboardItem, error) {
	zs, err := cmd.ZRevRangeWithScores(ctx, dbKeyLeaderboard(board), 0, int64(num-1)).Result()
	if err != nil {
		return nil, err
	}

	items := make([]models.LeaderboardItem, 0, len(zs))
	for i, z := range zs {
		userID, err := strconv.ParseInt(z.Member.(string), 10, 64)
		if err != nil {
			continue
		}

		items = append(items, models.LeaderboardItem{
			UserID: userID,
			Score:  z.Score,
			Rank:   i + 1,
		})
	}

	return items, nil
}

func GetLeaderboardRank(ctx context.Context, cmd redis.UniversalClient, board string, userID int64) (*models.LeaderboardItem, error) {
	member := strconv.FormatInt(userID, 10)

	rank, err := cmd.ZRevRank(ctx, dbKeyLeaderboard(board), member).Result()
	if err != nil {
		return nil, err
	}

	score, err := cmd.ZScore(ctx, dbKeyLeaderboard(board), member).Result()
	if err != nil {
		return nil, err
	}

	return &models.LeaderboardItem{
		UserID: userID,
		Score:  score,
		Rank:   int(rank) + 1,
	}, nil
}

func ClearLeaderboard(ctx context.Context, cmd redis.UniversalClient, board string) error {
	return cmd.Del(ctx, dbKeyLeaderboard(board), dbKeyLeaderboardSnapshot(board)).Err()
}

// Snapshot is the fully enriched response (names resolved), kept separately
// from the raw ZSET so reads skip the per-user lookups.
func SetLeaderboardSnapshot(ctx context.Context, cmd redis.UniversalClient, board string, items []models.LeaderboardItem, ttl time.Duration) error {
	b, err := msgpack.Marshal(items)
	if err != nil {
		return err
	}

	return cmd.Set(ctx, dbKeyLeaderboardSnapshot(board), b, ttl).Err()
}

func GetLeaderboardSnapshot(ctx context.Context, cmd redis.UniversalClient, board string) ([]models.LeaderboardItem, error) {
	b, err := cmd.Get(ctx, dbKeyLeaderboardSnapshot(board)).Bytes()
	if err != nil {
		return nil, err
	}

	var items []models.LeaderboardItem
	err = msgpack.Unmarshal(b, &items)
	if err != nil {
		return nil, err
	}

	return items, nil
}
