package repository

import (
	"errors"
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avelez9/habitflow/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Enable foreign key constraints (SQLite default is off)
	gdb.Exec("PRAGMA foreign_keys = ON")

	db := &DB{gdb}
	if err := db.AutoMigrate(); err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}
	return db
}

// createTestUser creates a test user in the database.
func createTestUser(t *testing.T, db *DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "$2a$10$hash",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	user := &models.User{Name: "alex", Email: "alex@example.com", Password: "hash"}
	if err := repo.Create(user); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("Expected user ID to be set after creation")
	}

	got, err := repo.GetByID(user.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if got.Email != "alex@example.com" {
		t.Errorf("Expected email alex@example.com, got %q", got.Email)
	}
	if got.Streak != 0 || got.LastStreakDate != nil {
		t.Errorf("New user should have zero streak state: %+v", got)
	}

	if _, err := repo.GetByID(9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	created := createTestUser(t, db, "alex")

	got, err := repo.GetByEmail("alex@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() failed: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Expected user %d, got %d", created.ID, got.ID)
	}

	if _, err := repo.GetByEmail("nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_EmailTaken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "alex")

	taken, err := repo.EmailTaken("alex@example.com", 0)
	if err != nil {
		t.Fatalf("EmailTaken() failed: %v", err)
	}
	if !taken {
		t.Error("Expected email to be taken")
	}

	// Excluding the owner means the email is free for them.
	taken, err = repo.EmailTaken("alex@example.com", user.ID)
	if err != nil {
		t.Fatalf("EmailTaken() failed: %v", err)
	}
	if taken {
		t.Error("Expected email to be free when excluding its owner")
	}
}

func TestUserRepository_AdvanceStreak(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "alex")

	applied, err := repo.AdvanceStreak(user.ID, 1, "2026-03-10")
	if err != nil {
		t.Fatalf("AdvanceStreak() failed: %v", err)
	}
	if !applied {
		t.Fatal("Expected first advance to apply")
	}

	got, _ := repo.GetByID(user.ID)
	if got.Streak != 1 || got.LastStreakDate == nil || *got.LastStreakDate != "2026-03-10" {
		t.Errorf("Persisted state wrong: streak=%d last=%v", got.Streak, got.LastStreakDate)
	}

	// Same day again: the conditional update must refuse.
	applied, err = repo.AdvanceStreak(user.ID, 2, "2026-03-10")
	if err != nil {
		t.Fatalf("AdvanceStreak() failed: %v", err)
	}
	if applied {
		t.Error("Expected same-day advance to be rejected")
	}
	got, _ = repo.GetByID(user.ID)
	if got.Streak != 1 {
		t.Errorf("Streak changed on rejected advance: %d", got.Streak)
	}

	// Next day applies again.
	applied, err = repo.AdvanceStreak(user.ID, 2, "2026-03-11")
	if err != nil {
		t.Fatalf("AdvanceStreak() failed: %v", err)
	}
	if !applied {
		t.Error("Expected next-day advance to apply")
	}
}

func TestUserRepository_AdvanceStreak_UnknownUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)

	applied, err := repo.AdvanceStreak(9999, 1, "2026-03-10")
	if err != nil {
		t.Fatalf("AdvanceStreak() failed: %v", err)
	}
	if applied {
		t.Error("Expected no rows affected for unknown user")
	}
}

func TestUserRepository_UpdateProfileAndPassword(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	user := createTestUser(t, db, "alex")

	updated, err := repo.UpdateProfile(user.ID, "alexandra", "alexandra@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if updated.Name != "alexandra" || updated.Email != "alexandra@example.com" {
		t.Errorf("Profile not updated: %+v", updated)
	}

	if err := repo.UpdatePassword(user.ID, "newhash"); err != nil {
		t.Fatalf("UpdatePassword() failed: %v", err)
	}
	got, _ := repo.GetByID(user.ID)
	if got.Password != "newhash" {
		t.Errorf("Password not updated: %q", got.Password)
	}
}

func TestUserRepository_ListIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	u1 := createTestUser(t, db, "alex")
	u2 := createTestUser(t, db, "sam")

	ids, err := repo.ListIDs()
	if err != nil {
		t.Fatalf("ListIDs() failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != u1.ID || ids[1] != u2.ID {
		t.Errorf("ListIDs() = %v", ids)
	}
}
