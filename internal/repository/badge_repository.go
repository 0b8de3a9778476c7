package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/avelez9/habitflow/internal/models"
)

// BadgeRepository handles badge award database operations.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Award inserts a badge award for the user. Idempotent: the insert is an
// insert-if-absent on the unique (user_id, name) index, so concurrent or
// retried awards of the same badge never produce duplicates or errors.
func (r *BadgeRepository) Award(userID uint, name string, streakRequired int) error {
	award := &models.UserBadge{
		UserID:         userID,
		Name:           name,
		StreakRequired: streakRequired,
		EarnedAt:       time.Now().UTC(),
	}
	err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(award).Error
	if err != nil {
		return fmt.Errorf("failed to award badge %q to user %d: %w", name, userID, err)
	}
	return nil
}

// ListForUser retrieves a user's badges, most recently earned first.
func (r *BadgeRepository) ListForUser(userID uint) ([]models.UserBadge, error) {
	var awards []models.UserBadge
	err := r.db.Where("user_id = ?", userID).
		Order("earned_at DESC").
		Find(&awards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list badges for user %d: %w", userID, err)
	}
	return awards, nil
}

// NamesForUser returns the set of badge names a user has earned.
func (r *BadgeRepository) NamesForUser(userID uint) (map[string]bool, error) {
	var names []string
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ?", userID).
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list badge names for user %d: %w", userID, err)
	}
	earned := make(map[string]bool, len(names))
	for _, n := range names {
		earned[n] = true
	}
	return earned, nil
}

// HasEarned checks if a user has earned a specific badge.
func (r *BadgeRepository) HasEarned(userID uint, name string) (bool, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check badge %q for user %d: %w", name, userID, err)
	}
	return count > 0, nil
}

// CountHolders returns how many users have earned a badge.
func (r *BadgeRepository) CountHolders(name string) (int64, error) {
	var count int64
	err := r.db.Model(&models.UserBadge{}).
		Where("name = ?", name).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count holders of badge %q: %w", name, err)
	}
	return count, nil
}
