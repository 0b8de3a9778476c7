package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avelez9/habitflow/internal/models"
)

// HabitRepository handles habit and completion-date database operations.
type HabitRepository struct {
	db *DB
}

// NewHabitRepository creates a new habit repository.
func NewHabitRepository(db *DB) *HabitRepository {
	return &HabitRepository{db: db}
}

// Create creates a new habit.
func (r *HabitRepository) Create(habit *models.Habit) error {
	if err := r.db.Create(habit).Error; err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	habit.Completions = []string{}
	return nil
}

// GetByID retrieves a habit with its completion dates.
func (r *HabitRepository) GetByID(id uint) (*models.Habit, error) {
	var habit models.Habit
	if err := r.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get habit %d: %w", id, err)
	}

	dates, err := r.GetCompletionDates(id)
	if err != nil {
		return nil, err
	}
	habit.Completions = dates
	return &habit, nil
}

// ListForUser retrieves all habits owned by a user, newest first, with
// completion dates attached.
func (r *HabitRepository) ListForUser(ownerID uint) ([]models.Habit, error) {
	var habits []models.Habit
	err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&habits).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list habits for user %d: %w", ownerID, err)
	}

	for i := range habits {
		dates, err := r.GetCompletionDates(habits[i].ID)
		if err != nil {
			return nil, err
		}
		habits[i].Completions = dates
	}
	return habits, nil
}

// Update updates a habit's display metadata.
func (r *HabitRepository) Update(habit *models.Habit) error {
	err := r.db.Model(&models.Habit{}).
		Where("id = ?", habit.ID).
		Updates(map[string]interface{}{
			"name":        habit.Name,
			"description": habit.Description,
			"color":       habit.Color,
			"icon":        habit.Icon,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update habit %d: %w", habit.ID, err)
	}
	return nil
}

// Delete removes a habit and cascades its completion dates.
func (r *HabitRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("habit_id = ?", id).Delete(&models.HabitCompletion{}).Error; err != nil {
			return fmt.Errorf("failed to delete completions for habit %d: %w", id, err)
		}
		res := tx.Delete(&models.Habit{}, id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete habit %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetCompletionDates returns a habit's completion dates sorted ascending.
func (r *HabitRepository) GetCompletionDates(habitID uint) ([]string, error) {
	dates := []string{}
	err := r.db.Model(&models.HabitCompletion{}).
		Where("habit_id = ?", habitID).
		Order("date ASC").
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get completions for habit %d: %w", habitID, err)
	}
	return dates, nil
}

// HasCompletion reports whether the habit is completed on the given date.
func (r *HabitRepository) HasCompletion(habitID uint, date string) (bool, error) {
	var count int64
	err := r.db.Model(&models.HabitCompletion{}).
		Where("habit_id = ? AND date = ?", habitID, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check completion: %w", err)
	}
	return count > 0, nil
}

// AddCompletion marks the habit complete for the date. Safe on duplicates:
// the unique (habit_id, date) index absorbs concurrent re-toggles.
func (r *HabitRepository) AddCompletion(habitID uint, date string) error {
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.HabitCompletion{HabitID: habitID, Date: date}).Error
	if err != nil {
		return fmt.Errorf("failed to add completion: %w", err)
	}
	return nil
}

// RemoveCompletion marks the habit incomplete for the date. Removing an
// absent date is a no-op.
func (r *HabitRepository) RemoveCompletion(habitID uint, date string) error {
	err := r.db.Where("habit_id = ? AND date = ?", habitID, date).
		Delete(&models.HabitCompletion{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove completion: %w", err)
	}
	return nil
}

// CountForUser returns the number of habits a user owns.
func (r *HabitRepository) CountForUser(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Habit{}).
		Where("owner_id = ?", ownerID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count habits for user %d: %w", ownerID, err)
	}
	return count, nil
}

// CountCompletedOn returns how many of a user's habits are completed on the
// given date.
func (r *HabitRepository) CountCompletedOn(ownerID uint, date string) (int64, error) {
	var count int64
	err := r.db.Model(&models.HabitCompletion{}).
		Joins("JOIN habits ON habits.id = habit_completions.habit_id").
		Where("habits.owner_id = ? AND habit_completions.date = ?", ownerID, date).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count completions for user %d: %w", ownerID, err)
	}
	return count, nil
}
