package streak

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
	"github.com/avelez9/habitflow/pkg/logger"
)

// Mock stores for testing

type mockUserStore struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newMockUserStore(users ...*models.User) *mockUserStore {
	m := &mockUserStore{users: make(map[uint]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserStore) GetByID(id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

// AdvanceStreak mirrors the conditional SQL update: it refuses to apply when
// the stored last streak date already equals day.
func (m *mockUserStore) AdvanceStreak(userID uint, newStreak int, day string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	if u.LastStreakDate != nil && *u.LastStreakDate == day {
		return false, nil
	}
	u.Streak = newStreak
	d := day
	u.LastStreakDate = &d
	return true, nil
}

type mockHabitStore struct {
	mu          sync.Mutex
	habits      []models.Habit
	completions map[uint][]string
}

func newMockHabitStore(habitIDs ...uint) *mockHabitStore {
	m := &mockHabitStore{completions: make(map[uint][]string)}
	for _, id := range habitIDs {
		m.habits = append(m.habits, models.Habit{ID: id, OwnerID: 1, Name: "habit"})
	}
	return m
}

func (m *mockHabitStore) ListForUser(_ uint) ([]models.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Habit(nil), m.habits...), nil
}

func (m *mockHabitStore) GetCompletionDates(habitID uint) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.completions[habitID]...), nil
}

func (m *mockHabitStore) complete(habitID uint, day string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions[habitID] = append(m.completions[habitID], day)
}

type mockBadgeStore struct {
	mu      sync.Mutex
	awarded map[uint]map[string]int
	order   []string
}

func newMockBadgeStore() *mockBadgeStore {
	return &mockBadgeStore{awarded: make(map[uint]map[string]int)}
}

func (m *mockBadgeStore) Award(userID uint, name string, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.awarded[userID] == nil {
		m.awarded[userID] = make(map[string]int)
	}
	if m.awarded[userID][name] == 0 {
		m.order = append(m.order, name)
	}
	// unique index: re-award is a silent no-op
	m.awarded[userID][name]++
	return nil
}

func (m *mockBadgeStore) NamesForUser(userID uint) (map[string]bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]bool)
	for name := range m.awarded[userID] {
		out[name] = true
	}
	return out, nil
}

func newTestEngine(users *mockUserStore, habits *mockHabitStore, awards *mockBadgeStore, now time.Time) *Engine {
	log := logger.New("debug", "text", "stdout")
	clock := func() time.Time { return now }
	return NewEngine(users, habits, awards, badges.Default(), clock, "UTC", nil, log)
}

func testUser(streak int, lastDay string) *models.User {
	u := &models.User{ID: 1, Name: "alex", Streak: streak}
	if lastDay != "" {
		u.LastStreakDate = &lastDay
	}
	return u
}

func TestEvaluate_FirstCompletionStartsStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(0, ""))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	res := e.Evaluate(context.Background(), 1, "2026-03-10")

	if res == nil || !res.Updated {
		t.Fatalf("Expected updated result, got %+v", res)
	}
	if res.NewStreak != 1 {
		t.Errorf("Expected streak 1, got %d", res.NewStreak)
	}
	if len(res.BadgesEarned) != 0 {
		t.Errorf("Expected no badges at streak 1, got %v", res.BadgesEarned)
	}

	stored, _ := users.GetByID(1)
	if stored.Streak != 1 || stored.LastStreakDate == nil || *stored.LastStreakDate != "2026-03-10" {
		t.Errorf("Persisted state wrong: %+v", stored)
	}
}

func TestEvaluate_ConsecutiveDayAdvancesAndAwards(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(2, "2026-03-09"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	res := e.Evaluate(context.Background(), 1, "2026-03-10")

	if res == nil || !res.Updated || res.NewStreak != 3 {
		t.Fatalf("Expected streak 3, got %+v", res)
	}
	if len(res.BadgesEarned) != 1 || res.BadgesEarned[0].Name != "Starter" {
		t.Errorf("Expected Starter badge, got %v", res.BadgesEarned)
	}
	if awards.awarded[1]["Starter"] != 1 {
		t.Errorf("Expected one Starter award, got %d", awards.awarded[1]["Starter"])
	}
}

func TestEvaluate_GapResetsToOne(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(14, "2026-03-07"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()
	// Badges earned before the lapse stay earned.
	_ = awards.Award(1, "Starter", 3)
	_ = awards.Award(1, "Week Warrior", 7)
	_ = awards.Award(1, "Fortnight Fighter", 14)

	e := newTestEngine(users, habits, awards, now)
	res := e.Evaluate(context.Background(), 1, "2026-03-10")

	if res == nil || !res.Updated || res.NewStreak != 1 {
		t.Fatalf("Expected reset to 1, got %+v", res)
	}
	if len(res.BadgesEarned) != 0 {
		t.Errorf("Reset should award nothing, got %v", res.BadgesEarned)
	}
	if len(awards.awarded[1]) != 3 {
		t.Errorf("Reset must not revoke badges, have %d", len(awards.awarded[1]))
	}
}

func TestEvaluate_NotAllHabitsCompleted(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(5, "2026-03-09"))
	habits := newMockHabitStore(10, 11)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	res := e.Evaluate(context.Background(), 1, "2026-03-10")

	if res == nil || res.Updated {
		t.Fatalf("Expected unchanged result, got %+v", res)
	}
	if res.NewStreak != 5 {
		t.Errorf("Expected streak to stay 5, got %d", res.NewStreak)
	}

	stored, _ := users.GetByID(1)
	if stored.Streak != 5 || *stored.LastStreakDate != "2026-03-09" {
		t.Errorf("State should be untouched: %+v", stored)
	}
}

func TestEvaluate_SameDayIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(2, "2026-03-09"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)

	first := e.Evaluate(context.Background(), 1, "2026-03-10")
	if first == nil || !first.Updated || first.NewStreak != 3 {
		t.Fatalf("First evaluation: %+v", first)
	}

	second := e.Evaluate(context.Background(), 1, "2026-03-10")
	if second == nil || second.Updated {
		t.Fatalf("Second evaluation should be a no-op, got %+v", second)
	}
	if second.NewStreak != 3 {
		t.Errorf("Second evaluation streak = %d, want 3", second.NewStreak)
	}
	if awards.awarded[1]["Starter"] != 1 {
		t.Errorf("Starter awarded %d times, want 1", awards.awarded[1]["Starter"])
	}
}

func TestEvaluate_NegativeGapNeverDecrements(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(9, "2026-03-12"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	res := e.Evaluate(context.Background(), 1, "2026-03-10")

	if res == nil || res.Updated || res.NewStreak != 9 {
		t.Fatalf("Expected unchanged streak 9, got %+v", res)
	}
}

func TestEvaluate_MidnightRollover(t *testing.T) {
	// Engine runs after midnight for a request that computed yesterday's day.
	now := time.Date(2026, 3, 11, 0, 0, 5, 0, time.UTC)
	users := newMockUserStore(testUser(2, "2026-03-09"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	if res := e.Evaluate(context.Background(), 1, "2026-03-10"); res != nil {
		t.Fatalf("Expected nil on rollover, got %+v", res)
	}

	stored, _ := users.GetByID(1)
	if stored.Streak != 2 {
		t.Errorf("Streak must not change on rollover, got %d", stored.Streak)
	}
}

func TestEvaluate_UnknownUser(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore()
	habits := newMockHabitStore()
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	if res := e.Evaluate(context.Background(), 42, "2026-03-10"); res != nil {
		t.Fatalf("Expected nil for unknown user, got %+v", res)
	}
}

func TestEvaluate_NoHabits(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(0, ""))
	habits := newMockHabitStore()
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	if res := e.Evaluate(context.Background(), 1, "2026-03-10"); res != nil {
		t.Fatalf("Expected nil with no habits, got %+v", res)
	}
}

func TestEvaluate_MultipleBadgesInCatalogOrder(t *testing.T) {
	// A user whose award history is missing earlier badges gets them all at
	// once, lowest threshold first.
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(6, "2026-03-09"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)
	res := e.Evaluate(context.Background(), 1, "2026-03-10")

	if res == nil || res.NewStreak != 7 {
		t.Fatalf("Expected streak 7, got %+v", res)
	}
	if len(res.BadgesEarned) != 2 {
		t.Fatalf("Expected 2 badges, got %v", res.BadgesEarned)
	}
	if res.BadgesEarned[0].Name != "Starter" || res.BadgesEarned[1].Name != "Week Warrior" {
		t.Errorf("Badges out of catalog order: %v", res.BadgesEarned)
	}
}

func TestEvaluate_ConcurrentTogglesAdvanceOnce(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(2, "2026-03-09"))
	habits := newMockHabitStore(10)
	habits.complete(10, "2026-03-10")
	awards := newMockBadgeStore()

	e := newTestEngine(users, habits, awards, now)

	const workers = 16
	results := make([]*Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Evaluate(context.Background(), 1, "2026-03-10")
		}(i)
	}
	wg.Wait()

	updated := 0
	for _, res := range results {
		if res != nil && res.Updated {
			updated++
		}
	}
	if updated != 1 {
		t.Errorf("Expected exactly one update, got %d", updated)
	}

	stored, _ := users.GetByID(1)
	if stored.Streak != 3 {
		t.Errorf("Expected streak 3 after concurrent evaluations, got %d", stored.Streak)
	}
	if awards.awarded[1]["Starter"] != 1 {
		t.Errorf("Starter awarded %d times, want 1", awards.awarded[1]["Starter"])
	}
}

func TestReconcileBadges(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	users := newMockUserStore(testUser(7, "2026-03-10"))
	habits := newMockHabitStore(10)
	awards := newMockBadgeStore()
	_ = awards.Award(1, "Starter", 3)

	e := newTestEngine(users, habits, awards, now)
	n, err := e.ReconcileBadges(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileBadges() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 badge awarded, got %d", n)
	}
	if !mustNames(t, awards, 1)["Week Warrior"] {
		t.Error("Expected Week Warrior to be backfilled")
	}

	// Second run finds nothing missing.
	n, err = e.ReconcileBadges(context.Background(), 1)
	if err != nil {
		t.Fatalf("ReconcileBadges() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 badges on second run, got %d", n)
	}
}

func TestReconcileBadges_UnknownUser(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(newMockUserStore(), newMockHabitStore(), newMockBadgeStore(), now)

	n, err := e.ReconcileBadges(context.Background(), 42)
	if err != nil {
		t.Fatalf("ReconcileBadges() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 badges, got %d", n)
	}
}

func mustNames(t *testing.T, awards *mockBadgeStore, userID uint) map[string]bool {
	t.Helper()
	names, err := awards.NamesForUser(userID)
	if err != nil {
		t.Fatalf("NamesForUser() failed: %v", err)
	}
	return names
}
