package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gameday-trivia-service/internal/app"
	"gameday-trivia-service/internal/domain"
	pgloader "gameday-trivia-service/internal/infra/postgres"
	pgmigrations "gameday-trivia-service/internal/infra/postgres/migrations"
	infraredis "gameday-trivia-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

type downLive struct{}

func (downLive) LiveContext(context.Context, int64) (domain.LiveContext, error) {
	return domain.LiveContext{}, errors.New("no live feed in integration")
}

type downStats struct{}

func (downStats) SeasonStats(context.Context, int64, int, domain.StatGroup) (domain.SeasonStats, error) {
	return domain.SeasonStats{}, errors.New("no stat feed in integration")
}

func TestQuizLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	runMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	bank, err := pgloader.NewBankLoader(pool).LoadBank(ctx)
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}
	if len(bank) == 0 {
		t.Fatalf("expected seeded bank questions")
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	gen := app.NewGenerator(downLive{}, downStats{}, bank, 2026)
	service := app.NewQuizService(
		infraredis.NewQuestionStore(redisClient, time.Hour),
		infraredis.NewVoteStore(redisClient, time.Hour),
		infraredis.NewScoreStore(redisClient),
		gen,
		app.Config{RevealDelay: 50 * time.Millisecond, Lifetime: time.Minute, MinGap: time.Second},
	)

	const gamePk = 777

	q, err := service.LatestQuestion(ctx, gamePk)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if q == nil || q.CorrectIndex == nil {
		t.Fatalf("expected a gradable bank question, got %+v", q)
	}

	// Same question while it lives, straight out of Redis.
	again, err := service.LatestQuestion(ctx, gamePk)
	if err != nil || again == nil || again.ID != q.ID {
		t.Fatalf("expected stable question, got %+v err=%v", again, err)
	}

	time.Sleep(100 * time.Millisecond) // past reveal

	res, err := service.RecordVote(ctx, gamePk, q.ID, "alice", *q.CorrectIndex)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if res.Correct == nil || !*res.Correct || res.MyScore != 1 {
		t.Fatalf("expected correct scored vote, got %+v", res)
	}

	// Duplicate correct vote never double-credits.
	res, err = service.RecordVote(ctx, gamePk, q.ID, "alice", *q.CorrectIndex)
	if err != nil {
		t.Fatalf("repeat vote: %v", err)
	}
	if res.MyScore != 1 {
		t.Fatalf("expected idempotent score, got %d", res.MyScore)
	}

	wrong := (*q.CorrectIndex + 1) % len(q.Options)
	res, err = service.RecordVote(ctx, gamePk, q.ID, "bob", wrong)
	if err != nil {
		t.Fatalf("bob vote: %v", err)
	}
	if res.Correct == nil || *res.Correct || res.MyScore != 0 {
		t.Fatalf("expected wrong unscored vote, got %+v", res)
	}

	leaders, err := service.Leaderboard(ctx, gamePk, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(leaders) != 1 || leaders[0].Participant != "alice" || leaders[0].Score != 1 {
		t.Fatalf("unexpected leaderboard: %+v", leaders)
	}
}

func TestGameIngestEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	store := infraredis.NewGameStore(redisClient)

	games := []domain.Game{
		{GamePk: 1, Date: "2026-07-04", HomeTeam: "Phillies", AwayTeam: "Mets", Status: "Scheduled"},
		{GamePk: 2, Date: "2026-07-04", HomeTeam: "Dodgers", AwayTeam: "Giants", Status: "Live"},
	}
	for _, g := range games {
		if err := store.UpsertGame(ctx, g); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	listed, err := store.GamesByDate(ctx, "2026-07-04")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 games, got %d", len(listed))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func runMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
