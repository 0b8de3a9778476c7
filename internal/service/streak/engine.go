// Package streak implements the streak and badge-award engine.
//
// The engine is the only writer of a user's streak state and earned-badge
// set. It runs after a habit completion leaves every one of the user's habits
// completed for the effective day, re-checks that precondition defensively,
// and decides whether the streak continues, restarts, or stays unchanged.
package streak

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/dates"
	"github.com/avelez9/habitflow/internal/metrics"
	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
	"github.com/avelez9/habitflow/pkg/logger"
)

// UserStore is the user persistence surface the engine needs.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
	AdvanceStreak(userID uint, newStreak int, day string) (bool, error)
}

// HabitStore is the habit persistence surface the engine needs.
type HabitStore interface {
	ListForUser(ownerID uint) ([]models.Habit, error)
	GetCompletionDates(habitID uint) ([]string, error)
}

// BadgeStore is the badge persistence surface the engine needs. Award must be
// idempotent: re-awarding a held badge is a no-op, not an error.
type BadgeStore interface {
	Award(userID uint, name string, streakRequired int) error
	NamesForUser(userID uint) (map[string]bool, error)
}

// Notifier receives badge-award events. Implementations must be best-effort.
type Notifier interface {
	BadgeEarned(ctx context.Context, userName string, badge badges.Milestone)
}

// Result is the engine outcome reported back through the toggle response.
type Result struct {
	Updated      bool               `json:"updated"`
	NewStreak    int                `json:"newStreak"`
	BadgesEarned []badges.Milestone `json:"badgesEarned"`
}

// Engine decides streak continuation and badge awards.
type Engine struct {
	users    UserStore
	habits   HabitStore
	awards   BadgeStore
	catalog  *badges.Catalog
	clock    dates.Clock
	timezone string
	notifier Notifier
	locks    *userLocks
	log      *logger.Logger
}

// NewEngine creates a streak engine. clock defaults to time.Now and notifier
// may be nil.
func NewEngine(
	users UserStore,
	habits HabitStore,
	awards BadgeStore,
	catalog *badges.Catalog,
	clock dates.Clock,
	timezone string,
	notifier Notifier,
	log *logger.Logger,
) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{
		users:    users,
		habits:   habits,
		awards:   awards,
		catalog:  catalog,
		clock:    clock,
		timezone: timezone,
		notifier: notifier,
		locks:    newUserLocks(),
		log:      log,
	}
}

// EffectiveDay returns the server-authoritative calendar day for streak
// purposes.
func (e *Engine) EffectiveDay() string {
	return dates.EffectiveDay(e.clock(), e.timezone)
}

// Evaluate runs the streak decision table for (user, day) and returns the
// outcome, or nil when nothing applies. Persistence errors degrade to nil:
// streak bookkeeping is best-effort relative to the completion toggle that
// triggered it, so the caller never fails because of them.
func (e *Engine) Evaluate(ctx context.Context, userID uint, day string) *Result {
	start := time.Now()
	defer func() {
		metrics.EngineDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	unlock := e.locks.lock(userID)
	defer unlock()

	user, err := e.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Defensive: the toggle just touched this user's habit, but the
			// engine never errors on a vanished user.
			return nil
		}
		e.fail(err, userID, "load user")
		return nil
	}
	if user == nil {
		return nil
	}

	userHabits, err := e.habits.ListForUser(userID)
	if err != nil {
		e.fail(err, userID, "list habits")
		return nil
	}
	if len(userHabits) == 0 {
		return nil
	}

	for _, h := range userHabits {
		completions, err := e.habits.GetCompletionDates(h.ID)
		if err != nil {
			e.fail(err, userID, "load completions")
			return nil
		}
		if !slices.Contains(completions, day) {
			return unchanged(user)
		}
	}

	// Already advanced today; re-entry is idempotent.
	if user.LastStreakDate != nil && *user.LastStreakDate == day {
		return unchanged(user)
	}

	// The request may have straddled midnight in the configured timezone
	// between computing the day and reaching the engine.
	if e.EffectiveDay() != day {
		e.log.Debug().
			Uint("user_id", userID).
			Str("day", day).
			Msg("Effective day rolled over during request, skipping streak update")
		return nil
	}

	newStreak := 1
	if user.LastStreakDate != nil {
		gap, err := dates.DaysBetween(*user.LastStreakDate, day)
		if err != nil {
			e.fail(err, userID, "compute day gap")
			return nil
		}
		switch {
		case gap == 1:
			newStreak = user.Streak + 1
		case gap > 1:
			newStreak = 1
		default:
			// gap <= 0: same day was handled above, negative means clock
			// skew or out-of-order processing. Never decrement.
			return unchanged(user)
		}
	}

	applied, err := e.users.AdvanceStreak(userID, newStreak, day)
	if err != nil {
		e.fail(err, userID, "persist streak")
		return nil
	}
	if !applied {
		// A concurrent request advanced the streak first.
		return unchanged(user)
	}

	if newStreak == 1 && user.Streak > 1 {
		metrics.StreakResetsTotal.Inc()
	} else {
		metrics.StreakAdvancesTotal.Inc()
	}

	e.log.Info().
		Uint("user_id", userID).
		Str("day", day).
		Int("streak", newStreak).
		Msg("Streak advanced")

	return &Result{
		Updated:      true,
		NewStreak:    newStreak,
		BadgesEarned: e.awardNewBadges(ctx, user, newStreak),
	}
}

// awardNewBadges diffs the catalog milestones reachable at streak against the
// user's earned set and inserts the missing awards in catalog order. Award
// failures skip the badge; it will be picked up by the next qualifying day or
// the nightly reconciliation.
func (e *Engine) awardNewBadges(ctx context.Context, user *models.User, streak int) []badges.Milestone {
	earned, err := e.awards.NamesForUser(user.ID)
	if err != nil {
		e.fail(err, user.ID, "list earned badges")
		return []badges.Milestone{}
	}

	newBadges := []badges.Milestone{}
	for _, m := range e.catalog.EarnedAt(streak) {
		if earned[m.Name] {
			continue
		}
		if err := e.awards.Award(user.ID, m.Name, m.StreakRequired); err != nil {
			e.fail(err, user.ID, "award badge")
			continue
		}

		newBadges = append(newBadges, m)
		metrics.RecordBadgeAwarded(m.Name, "engine")
		e.log.Info().
			Uint("user_id", user.ID).
			Str("badge", m.Name).
			Int("streak", streak).
			Msg("Badge awarded")

		if e.notifier != nil {
			e.notifier.BadgeEarned(ctx, user.Name, m)
		}
	}
	return newBadges
}

// ReconcileBadges re-diffs a user's earned badges against the catalog at
// their current streak and awards anything missing. A crash between the
// streak persist and the badge insert leaves a gap this closes; it can only
// add awards, never remove them. Returns the number of badges awarded.
func (e *Engine) ReconcileBadges(ctx context.Context, userID uint) (int, error) {
	unlock := e.locks.lock(userID)
	defer unlock()

	user, err := e.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	earned, err := e.awards.NamesForUser(userID)
	if err != nil {
		return 0, err
	}

	awarded := 0
	for _, m := range e.catalog.EarnedAt(user.Streak) {
		if earned[m.Name] {
			continue
		}
		if err := e.awards.Award(userID, m.Name, m.StreakRequired); err != nil {
			return awarded, err
		}
		awarded++
		metrics.RecordBadgeAwarded(m.Name, "reconciliation")
		e.log.Info().
			Uint("user_id", userID).
			Str("badge", m.Name).
			Int("streak", user.Streak).
			Msg("Badge awarded by reconciliation")
		if e.notifier != nil {
			e.notifier.BadgeEarned(ctx, user.Name, m)
		}
	}
	return awarded, nil
}

func (e *Engine) fail(err error, userID uint, op string) {
	metrics.EngineFailuresTotal.Inc()
	e.log.Error().Err(err).Uint("user_id", userID).Str("op", op).Msg("Streak engine degraded")
}

func unchanged(user *models.User) *Result {
	return &Result{
		Updated:      false,
		NewStreak:    user.Streak,
		BadgesEarned: []badges.Milestone{},
	}
}
