package main

import (
	"context"
	"log"
	"time"

	"earnhub/internal/services"

	"github.com/robfig/cron/v3"
)

type LeaderboardJob struct {
	serviceLeaderboard *services.ServiceLeaderboard
	serviceConfig      *services.ServiceConfig
}

func NewLeaderboardJob(serviceLeaderboard *services.ServiceLeaderboard, serviceConfig *services.ServiceConfig) *LeaderboardJob {
	return &LeaderboardJob{serviceLeaderboard, serviceConfig}
}

func (j *LeaderboardJob) Start(cronRunner *cron.Cron) error {
	schedule, err := j.serviceConfig.GetStringConfig(context.Background(), services.CONFIG_CRONJOB_TIME_LEADERBOARD, "*/10 * * * *")
	if err != nil {
		log.Println("falling back to default leaderboard schedule:", err)
	}

	if _, err := cronRunner.AddFunc(schedule, j.rebuild); err != nil {
		return err
	}

	log.Println("Leaderboard cronjob start at:", time.Now().Format("2006-01-02 15:04:05"), "cron:", schedule)
	j.rebuild()
	return nil
}

// rebuild refreshes both boards. The weekly board resets itself: its source
// query only sums transactions since the start of the current week.
func (j *LeaderboardJob) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, board := range []string{services.LEADERBOARD_OVERALL, services.LEADERBOARD_WEEKLY} {
		if err := j.serviceLeaderboard.Rebuild(ctx, board); err != nil {
			log.Printf("rebuild %s: %v", board, err)
		}
	}
}
