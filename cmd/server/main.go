// Command server runs the habitflow HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelez9/habitflow/internal/api"
	authapi "github.com/avelez9/habitflow/internal/api/auth"
	habitsapi "github.com/avelez9/habitflow/internal/api/habits"
	rewardsapi "github.com/avelez9/habitflow/internal/api/rewards"
	tasksapi "github.com/avelez9/habitflow/internal/api/tasks"
	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/cache"
	"github.com/avelez9/habitflow/internal/config"
	"github.com/avelez9/habitflow/internal/notify"
	"github.com/avelez9/habitflow/internal/repository"
	habitsvc "github.com/avelez9/habitflow/internal/service/habits"
	"github.com/avelez9/habitflow/internal/service/scheduler"
	"github.com/avelez9/habitflow/internal/service/streak"
	tasksvc "github.com/avelez9/habitflow/internal/service/tasks"
	usersvc "github.com/avelez9/habitflow/internal/service/users"
	"github.com/avelez9/habitflow/pkg/logger"
	"github.com/avelez9/habitflow/pkg/token"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Msg("Starting habitflow server")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	if err := repository.Migrate(&cfg.Database.Postgres, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	db, err := repository.NewDB(&cfg.Database.Postgres, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	catalog, err := badges.LoadFile(cfg.Badges.CatalogFile)
	if err != nil {
		return fmt.Errorf("badge catalog: %w", err)
	}
	log.Info().Int("milestones", catalog.Len()).Msg("Badge catalog loaded")

	var streakCache *cache.StreakCache
	if cfg.Database.Redis.Host != "" {
		ttl := time.Duration(cfg.Streak.CacheTTL) * time.Second
		streakCache, err = cache.New(&cfg.Database.Redis, ttl, log)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer streakCache.Close()
	} else {
		log.Warn().Msg("Redis not configured, streak summary caching disabled")
	}

	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)

	var notifier streak.Notifier
	if cfg.Notifications.Enabled {
		notifier = notify.NewClient(&cfg.Notifications, log)
	}

	engine := streak.NewEngine(
		userRepo,
		habitRepo,
		badgeRepo,
		catalog,
		nil,
		cfg.Streak.Timezone,
		notifier,
		log.Component("streak"),
	)

	tokens := token.New(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Hour)

	userService := usersvc.NewService(userRepo, tokens)
	taskService := tasksvc.NewService(taskRepo)

	var summaryCache habitsvc.StreakCache
	var rewardsCache rewardsapi.SummaryCache
	if streakCache != nil {
		summaryCache = streakCache
		rewardsCache = streakCache
	}
	habitService := habitsvc.NewService(habitRepo, engine, summaryCache, log.Component("habits"))

	sched := scheduler.NewService(&cfg.Scheduler, engine, userRepo, badgeRepo, catalog, log.Component("scheduler"))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sched.Stop()

	handlers := api.Handlers{
		Auth:    authapi.NewHandler(userService, log.Component("api.auth")),
		Habits:  habitsapi.NewHandler(habitService, log.Component("api.habits")),
		Tasks:   tasksapi.NewHandler(taskService, log.Component("api.tasks")),
		Rewards: rewardsapi.NewHandler(userRepo, badgeRepo, catalog, rewardsCache, log.Component("api.rewards")),
	}

	router := api.NewRouter(cfg, handlers, tokens, db, log.Component("http"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
