// Package scheduler runs the nightly badge reconciliation sweep.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/config"
	"github.com/avelez9/habitflow/internal/metrics"
	"github.com/avelez9/habitflow/pkg/logger"
)

// Reconciler re-checks one user's earned badges against their streak.
type Reconciler interface {
	ReconcileBadges(ctx context.Context, userID uint) (int, error)
}

// UserLister enumerates users for the sweep.
type UserLister interface {
	ListIDs() ([]uint, error)
}

// HolderCounter counts how many users hold a badge.
type HolderCounter interface {
	CountHolders(name string) (int64, error)
}

// Service handles the daily reconciliation schedule.
type Service struct {
	config  *config.SchedulerConfig
	engine  Reconciler
	users   UserLister
	holders HolderCounter
	catalog *badges.Catalog
	log     *logger.Logger
	cron    *cron.Cron
}

// NewService creates a scheduler service. holders may be nil to skip the
// holder-count gauge refresh.
func NewService(cfg *config.SchedulerConfig, engine Reconciler, users UserLister, holders HolderCounter, catalog *badges.Catalog, log *logger.Logger) *Service {
	return &Service{config: cfg, engine: engine, users: users, holders: holders, catalog: catalog, log: log}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	cronExpr, err := buildCronExpression(s.config.ReconciliationTime)
	if err != nil {
		return fmt.Errorf("failed to build cron expression: %w", err)
	}

	_, err = s.cron.AddFunc(cronExpr, func() {
		s.runReconciliation(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register reconciliation job: %w", err)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", cronExpr).
		Str("timezone", s.config.Timezone).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildCronExpression generates a daily cron expression from an "HH:MM" time.
func buildCronExpression(at string) (string, error) {
	parts := strings.Split(at, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", at)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// runReconciliation sweeps every user and awards any badge their current
// streak entitles them to but the engine failed to persist.
func (s *Service) runReconciliation(ctx context.Context) {
	start := time.Now()
	s.log.Info().Msg("Running badge reconciliation job")

	userIDs, err := s.users.ListIDs()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list users for reconciliation")
		metrics.ReconciliationRunsTotal.WithLabelValues("error").Inc()
		return
	}

	awarded := 0
	failed := 0
	for _, id := range userIDs {
		n, err := s.engine.ReconcileBadges(ctx, id)
		awarded += n
		if err != nil {
			failed++
			s.log.Error().Err(err).Uint("user_id", id).Msg("Reconciliation failed for user")
		}
	}

	status := "success"
	if failed > 0 {
		status = "partial"
	}
	metrics.ReconciliationRunsTotal.WithLabelValues(status).Inc()

	s.refreshHolderGauges()

	s.log.Info().
		Int("users", len(userIDs)).
		Int("badges_awarded", awarded).
		Int("failed_users", failed).
		Dur("duration", time.Since(start)).
		Msg("Badge reconciliation job completed")
}

// refreshHolderGauges republishes the per-badge holder counts after a sweep.
func (s *Service) refreshHolderGauges() {
	if s.holders == nil || s.catalog == nil {
		return
	}
	for _, m := range s.catalog.All() {
		count, err := s.holders.CountHolders(m.Name)
		if err != nil {
			s.log.Warn().Err(err).Str("badge", m.Name).Msg("Failed to count badge holders")
			continue
		}
		metrics.SetBadgeHolders(m.Name, int(count))
	}
}
