package cli

import (
	"context"
	"log"
	"time"

	"gameday-trivia-service/internal/app"
	"gameday-trivia-service/internal/config"
	"gameday-trivia-service/internal/infra/memory"
	"gameday-trivia-service/internal/infra/mlb"
	infraredis "gameday-trivia-service/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewIngestCmd fetches the schedule for a date and upserts it into the
// game store.
func NewIngestCmd(configPath *string) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest the MLB schedule for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), *configPath, date)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date to ingest (YYYY-MM-DD, default today)")
	return cmd
}

func runIngest(ctx context.Context, configPath, date string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	var games app.GameStore = memory.NewGameStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		games = infraredis.NewGameStore(client)
	} else {
		log.Printf("no redis configured; ingested games will not persist past this run")
	}

	client := mlb.NewClient(cfg.MLB.BaseURL, config.Duration(cfg.MLB.Timeout, 5*time.Second))
	schedule, err := client.Schedule(ctx, date)
	if err != nil {
		return err
	}
	for _, g := range schedule {
		if err := games.UpsertGame(ctx, g); err != nil {
			return err
		}
	}
	log.Printf("ingested %d games for %s", len(schedule), date)
	return nil
}
