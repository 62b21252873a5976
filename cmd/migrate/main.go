package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"log"
	"os"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"
	"earnhub/internal/services"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandSeed(),
			commandImportQuizQuestions(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name: "migrate",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			creates := []func(context.Context, *bun.DB) error{
				datastore.CreateTableUser,
				datastore.CreateTableWallet,
				datastore.CreateTableTransaction,
				datastore.CreateTableSpinHistory,
				datastore.CreateTableQuizQuestion,
				datastore.CreateTableQuizAttempt,
				datastore.CreateTableNumberGameAttempt,
				datastore.CreateTableVideo,
				datastore.CreateTableVideoWatch,
				datastore.CreateTableReferral,
				datastore.CreateTableReferralSetting,
				datastore.CreateTableWithdrawal,
				datastore.CreateTableDeposit,
				datastore.CreateTableConfig,
			}
			for _, create := range creates {
				if err := create(ctx, db); err != nil {
					log.Fatal(err)
				}
			}

			log.Println("migration done")
			return nil
		},
	}
}

func commandSeed() *cli.Command {
	return &cli.Command{
		Name: "seed",
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			settings := []*models.ReferralSetting{
				{Level: 1, CommissionPercentage: 10, IsActive: true},
				{Level: 2, CommissionPercentage: 5, IsActive: true},
				{Level: 3, CommissionPercentage: 2, IsActive: true},
			}
			for _, setting := range settings {
				if err := datastore.UpsertReferralSetting(ctx, db, setting); err != nil {
					log.Fatal(err)
				}
			}

			configs := []*models.Config{
				{Key: services.CONFIG_LEADERBOARD_LIMIT, Value: "20"},
				{Key: services.CONFIG_CRONJOB_TIME_LEADERBOARD, Value: "*/10 * * * *"},
			}
			for _, config := range configs {
				if err := datastore.UpsertConfig(ctx, db, config); err != nil {
					log.Fatal(err)
				}
			}

			log.Println("seed done")
			return nil
		},
	}
}

// commandImportQuizQuestions loads questions from a CSV with columns:
// question, option1..option4, correct_answer, category, difficulty
func commandImportQuizQuestions() *cli.Command {
	return &cli.Command{
		Name: "import-quiz",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			ctx := context.Background()
			db, err := getDb()
			if err != nil {
				log.Fatal(err)
			}

			f, err := os.Open(c.String("file"))
			if err != nil {
				log.Fatal(err)
			}
			defer f.Close()

			records, err := csv.NewReader(f).ReadAll()
			if err != nil {
				log.Fatal(err)
			}

			imported := 0
			for i, record := range records {
				if i == 0 {
					continue // header
				}
				if len(record) < 8 {
					log.Printf("row %d: expected 8 columns, got %d", i, len(record))
					continue
				}

				question := &models.QuizQuestion{
					Question:      record[0],
					Options:       []string{record[1], record[2], record[3], record[4]},
					CorrectAnswer: record[5],
					Category:      record[6],
					Difficulty:    record[7],
					IsActive:      true,
					CreatedAt:     time.Now(),
					UpdatedAt:     time.Now(),
				}
				if err := datastore.InsertQuizQuestion(ctx, db, question); err != nil {
					log.Printf("row %d: %v", i, err)
					continue
				}
				imported++
			}

			log.Printf("imported %d questions", imported)
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(os.Getenv("DB_DSN")),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
