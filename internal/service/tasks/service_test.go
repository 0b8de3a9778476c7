package tasks

import (
	"errors"
	"testing"
	"time"

	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
)

type mockTaskStore struct {
	tasks  map[uint]*models.Task
	nextID uint
}

func newMockTaskStore() *mockTaskStore {
	return &mockTaskStore{tasks: make(map[uint]*models.Task), nextID: 1}
}

func (m *mockTaskStore) Create(task *models.Task) error {
	task.ID = m.nextID
	m.nextID++
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskStore) GetByID(id uint) (*models.Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockTaskStore) ListForUser(ownerID uint, completed *bool) ([]models.Task, error) {
	var out []models.Task
	for _, t := range m.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTaskStore) Update(task *models.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *task
	m.tasks[task.ID] = &copied
	return nil
}

func (m *mockTaskStore) Delete(id uint) error {
	if _, ok := m.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func TestCreate_DefaultPriority(t *testing.T) {
	s := NewService(newMockTaskStore())

	task, err := s.Create(1, "write report", "", "", nil)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if task.Priority != "medium" {
		t.Errorf("Expected default priority medium, got %q", task.Priority)
	}
	if task.Completed {
		t.Error("New task must start incomplete")
	}

	due := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	task, err = s.Create(1, "urgent thing", "", "high", &due)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if task.Priority != "high" || task.DueDate == nil {
		t.Errorf("Unexpected task: %+v", task)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	s := NewService(newMockTaskStore())
	task, _ := s.Create(1, "write report", "", "", nil)

	done, err := s.Complete(1, task.ID)
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if !done.Completed {
		t.Error("Expected task to be completed")
	}

	again, err := s.Complete(1, task.ID)
	if err != nil {
		t.Fatalf("Second Complete() failed: %v", err)
	}
	if !again.Completed {
		t.Error("Task must stay completed")
	}
}

func TestList_Filter(t *testing.T) {
	s := NewService(newMockTaskStore())
	t1, _ := s.Create(1, "one", "", "", nil)
	_, _ = s.Create(1, "two", "", "", nil)
	_, _ = s.Create(2, "theirs", "", "", nil)

	if _, err := s.Complete(1, t1.ID); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}

	all, err := s.List(1, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 tasks, got %d", len(all))
	}

	done := true
	completed, err := s.List(1, &done)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != t1.ID {
		t.Errorf("Unexpected completed list: %v", completed)
	}
}

func TestOwnership(t *testing.T) {
	s := NewService(newMockTaskStore())
	task, _ := s.Create(1, "mine", "", "", nil)

	if _, err := s.Get(2, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign get, got %v", err)
	}
	if _, err := s.Complete(2, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign complete, got %v", err)
	}
	if err := s.Delete(2, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign delete, got %v", err)
	}

	if err := s.Delete(1, task.ID); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := s.Get(1, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected task to be gone, got %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	s := NewService(newMockTaskStore())
	task, _ := s.Create(1, "draft", "first pass", "low", nil)

	completed := true
	updated, err := s.Update(1, task.ID, "", "", "high", nil, &completed)
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if updated.Title != "draft" || updated.Priority != "high" || !updated.Completed {
		t.Errorf("Unexpected update result: %+v", updated)
	}
}
