package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"matchmaking/internal/config"
	"matchmaking/internal/database"
	"matchmaking/internal/database/migration"
	dbpostgres "matchmaking/internal/database/postgres"
	"matchmaking/internal/infrastructure/cache"
	"matchmaking/internal/repository"
	"matchmaking/internal/usecase"
	"matchmaking/internal/ws"
)

// Container holds the long lived collaborators shared by the HTTP server and
// the admin CLI.
type Container struct {
	Config   config.Config
	Logger   *log.Logger
	DB       database.DB
	Redis    *cache.Redis
	Hub      *ws.Hub
	Events   repository.EventRepository
	Schedule *usecase.Schedule
}

func NewLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds)
}

func NewContainer(cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = NewLogger()
	}

	weights, err := config.LoadWeights(cfg.Matching.WeightsFile)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Database.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	logger.Printf("[App] postgres connected host=%s db=%s", cfg.Database.DBHost, cfg.Database.DBName)

	rdb := cache.NewRedis(cfg.Redis, logger)
	hub := ws.NewHub(logger)
	events := repository.NewPostgresEventRepository(db)
	locker := cache.NewEventLocker(rdb, cfg.Matching.EventLockTTL, logger)

	uc := usecase.NewScheduleUsecase(events, rdb, locker, hub, usecase.ScheduleConfig{
		Weights:               weights,
		MinScore:              cfg.Matching.MinScore,
		MaxMeetingsPerStartup: cfg.Matching.MaxMeetingsPerStartup,
		Workers:               cfg.Workers.RematchWorkers,
		CacheTTL:              cfg.Redis.TTL,
	}, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Redis:    rdb,
		Hub:      hub,
		Events:   events,
		Schedule: uc,
	}, nil
}

// Migrator returns a runner over the configured migrations directory.
func (c *Container) Migrator() migration.Runner {
	return migration.Runner{Dir: c.Config.Database.MigrationsDir, Logger: c.Logger}
}

func (c *Container) Migrate(ctx context.Context) error {
	return c.Migrator().Run(ctx, c.DB.SQLDB())
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
