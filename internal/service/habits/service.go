// Package habits provides habit CRUD and the completion toggle orchestrator.
package habits

import (
	"context"
	"errors"

	"github.com/avelez9/habitflow/internal/metrics"
	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
	"github.com/avelez9/habitflow/internal/service/streak"
	"github.com/avelez9/habitflow/pkg/logger"
)

// ErrNotFound is returned when a habit does not exist or belongs to another
// user; ownership failures are indistinguishable from absence by design.
var ErrNotFound = errors.New("habit not found")

// HabitStore is the habit persistence surface the service needs.
type HabitStore interface {
	Create(habit *models.Habit) error
	GetByID(id uint) (*models.Habit, error)
	ListForUser(ownerID uint) ([]models.Habit, error)
	Update(habit *models.Habit) error
	Delete(id uint) error
	HasCompletion(habitID uint, date string) (bool, error)
	AddCompletion(habitID uint, date string) error
	RemoveCompletion(habitID uint, date string) error
	CountForUser(ownerID uint) (int64, error)
	CountCompletedOn(ownerID uint, date string) (int64, error)
}

// StreakEngine evaluates streak advancement after a qualifying completion.
type StreakEngine interface {
	EffectiveDay() string
	Evaluate(ctx context.Context, userID uint, day string) *streak.Result
}

// StreakCache invalidates cached streak summaries.
type StreakCache interface {
	Invalidate(ctx context.Context, userID uint)
}

// Progress is the per-day completion summary for a user.
type Progress struct {
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Percentage int    `json:"percentage"`
	Date       string `json:"date"`
}

// Service handles habit management and completion toggling.
type Service struct {
	repo   HabitStore
	engine StreakEngine
	cache  StreakCache
	log    *logger.Logger
}

// NewService creates a habit service. cache may be nil.
func NewService(repo HabitStore, engine StreakEngine, cache StreakCache, log *logger.Logger) *Service {
	return &Service{repo: repo, engine: engine, cache: cache, log: log}
}

// Create creates a habit for the user, applying display defaults.
func (s *Service) Create(userID uint, name, description, color, icon string) (*models.Habit, error) {
	if color == "" {
		color = "purple"
	}
	if icon == "" {
		icon = "star"
	}
	habit := &models.Habit{
		OwnerID:     userID,
		Name:        name,
		Description: description,
		Color:       color,
		Icon:        icon,
	}
	if err := s.repo.Create(habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// List returns the user's habits, newest first.
func (s *Service) List(userID uint) ([]models.Habit, error) {
	return s.repo.ListForUser(userID)
}

// Get returns one of the user's habits.
func (s *Service) Get(userID, habitID uint) (*models.Habit, error) {
	return s.owned(userID, habitID)
}

// Update edits a habit's display metadata; empty fields keep their value.
func (s *Service) Update(userID, habitID uint, name, description, color, icon string) (*models.Habit, error) {
	habit, err := s.owned(userID, habitID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		habit.Name = name
	}
	if description != "" {
		habit.Description = description
	}
	if color != "" {
		habit.Color = color
	}
	if icon != "" {
		habit.Icon = icon
	}
	if err := s.repo.Update(habit); err != nil {
		return nil, err
	}
	return habit, nil
}

// Delete removes a habit and its completion history.
func (s *Service) Delete(userID, habitID uint) error {
	if _, err := s.owned(userID, habitID); err != nil {
		return err
	}
	return s.repo.Delete(habitID)
}

// ToggleCompletion flips the habit's completion flag for the effective day
// and, only on an incomplete-to-complete transition, invokes the streak
// engine once the completion write has committed. The returned streak result
// is nil when the engine was not invoked or had nothing to do.
//
// The effective day is always server-computed; client-supplied dates caused
// timezone drift and are ignored for streak purposes.
func (s *Service) ToggleCompletion(ctx context.Context, userID, habitID uint) (*models.Habit, *streak.Result, error) {
	if _, err := s.owned(userID, habitID); err != nil {
		return nil, nil, err
	}

	day := s.engine.EffectiveDay()

	completed, err := s.repo.HasCompletion(habitID, day)
	if err != nil {
		return nil, nil, err
	}

	if completed {
		// complete -> incomplete: never invokes the engine.
		if err := s.repo.RemoveCompletion(habitID, day); err != nil {
			return nil, nil, err
		}
		metrics.RecordToggle("incomplete")
		s.log.Debug().Uint("habit_id", habitID).Str("day", day).Msg("Completion removed")
		habit, err := s.repo.GetByID(habitID)
		return habit, nil, err
	}

	// incomplete -> complete: the completion write commits first; the engine
	// runs only on its success and its failure never rolls the write back.
	if err := s.repo.AddCompletion(habitID, day); err != nil {
		return nil, nil, err
	}
	metrics.RecordToggle("complete")
	s.log.Debug().Uint("habit_id", habitID).Str("day", day).Msg("Completion recorded")

	result := s.engine.Evaluate(ctx, userID, day)
	if result != nil && result.Updated && s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}

	habit, err := s.repo.GetByID(habitID)
	return habit, result, err
}

// Progress reports how many of the user's habits are completed for the
// effective day.
func (s *Service) Progress(userID uint) (*Progress, error) {
	day := s.engine.EffectiveDay()

	total, err := s.repo.CountForUser(userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.CountCompletedOn(userID, day)
	if err != nil {
		return nil, err
	}

	percentage := 0
	if total > 0 {
		percentage = int(float64(completed)/float64(total)*100 + 0.5)
	}
	return &Progress{
		Total:      int(total),
		Completed:  int(completed),
		Percentage: percentage,
		Date:       day,
	}, nil
}

// owned loads a habit and verifies ownership.
func (s *Service) owned(userID, habitID uint) (*models.Habit, error) {
	habit, err := s.repo.GetByID(habitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if habit.OwnerID != userID {
		return nil, ErrNotFound
	}
	return habit, nil
}
