package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/avelez9/habitflow/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// UserRepository handles user-related database operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user.
func (r *UserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// EmailTaken reports whether another user already uses the email.
func (r *UserRepository) EmailTaken(email string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).
		Where("email = ? AND id <> ?", email, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// UpdateProfile updates a user's name and email.
func (r *UserRepository) UpdateProfile(id uint, name, email string) (*models.User, error) {
	err := r.db.Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "email": email}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return r.GetByID(id)
}

// UpdatePassword replaces a user's password hash.
func (r *UserRepository) UpdatePassword(id uint, hash string) error {
	err := r.db.Model(&models.User{}).
		Where("id = ?", id).
		Update("password", hash).Error
	if err != nil {
		return fmt.Errorf("failed to update password for user %d: %w", id, err)
	}
	return nil
}

// AdvanceStreak persists a new streak value and last-streak date in a single
// atomically-conditioned update: the row is touched only while its stored
// last_streak_date still differs from day. Returns false when a concurrent
// request already advanced the streak for that day.
func (r *UserRepository) AdvanceStreak(userID uint, newStreak int, day string) (bool, error) {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND (last_streak_date IS NULL OR last_streak_date <> ?)", userID, day).
		Updates(map[string]interface{}{"streak": newStreak, "last_streak_date": day})
	if res.Error != nil {
		return false, fmt.Errorf("failed to advance streak for user %d: %w", userID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListIDs returns every user id. Used by the nightly badge reconciliation.
func (r *UserRepository) ListIDs() ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.User{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}
