package models

import (
	"time"
)

// Habit represents a recurring daily habit owned by a user.
type Habit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       User      `gorm:"foreignKey:OwnerID" json:"-"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:50;default:purple" json:"color"`
	Icon        string    `gorm:"size:50;default:star" json:"icon"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Completions is populated from habit_completions rows, date-sorted.
	Completions []string `gorm:"-" json:"completions"`
}

// TableName specifies the table name for Habit model.
func (Habit) TableName() string {
	return "habits"
}

// HabitCompletion records that a habit was completed on a calendar date.
// Date is a "YYYY-MM-DD" string; one row per (habit, date).
type HabitCompletion struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	HabitID uint   `gorm:"not null;uniqueIndex:idx_habit_completion" json:"habit_id"`
	Habit   Habit  `gorm:"foreignKey:HabitID;constraint:OnDelete:CASCADE" json:"-"`
	Date    string `gorm:"not null;size:10;uniqueIndex:idx_habit_completion" json:"date"`
}

// TableName specifies the table name for HabitCompletion model.
func (HabitCompletion) TableName() string {
	return "habit_completions"
}
