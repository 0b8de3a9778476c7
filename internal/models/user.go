// Package models defines domain models for the habit tracker.
package models

import (
	"time"
)

// User represents a registered user and their current streak state.
//
// Streak is the count of consecutive effective days on which the user
// completed all of their habits. LastStreakDate is the most recent effective
// day ("YYYY-MM-DD") on which the streak advanced; nil until the first advance.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"not null;size:100" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	Password       string    `gorm:"not null;size:255" json:"-"`
	Streak         int       `gorm:"not null;default:0" json:"streak"`
	LastStreakDate *string   `gorm:"size:10" json:"last_streak_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model.
func (User) TableName() string {
	return "users"
}
