package models

import (
	"time"
)

// UserBadge represents a milestone badge earned by a user. Badges are never
// revoked; the unique index on (user, name) makes awarding idempotent at the
// storage layer.
type UserBadge struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"-"`
	Name           string    `gorm:"not null;size:100;uniqueIndex:idx_user_badge" json:"name"`
	StreakRequired int       `gorm:"not null" json:"streak_required"`
	EarnedAt       time.Time `gorm:"not null" json:"earned_at"`
}

// TableName specifies the table name for UserBadge model.
func (UserBadge) TableName() string {
	return "user_badges"
}
