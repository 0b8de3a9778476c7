// Package tasks provides one-off task management.
package tasks

import (
	"errors"
	"time"

	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
)

// ErrNotFound is returned when a task does not exist or belongs to another user.
var ErrNotFound = errors.New("task not found")

// TaskStore is the task persistence surface the service needs.
type TaskStore interface {
	Create(task *models.Task) error
	GetByID(id uint) (*models.Task, error)
	ListForUser(ownerID uint, completed *bool) ([]models.Task, error)
	Update(task *models.Task) error
	Delete(id uint) error
}

// Service handles task management. Tasks never interact with streaks.
type Service struct {
	repo TaskStore
}

// NewService creates a task service.
func NewService(repo TaskStore) *Service {
	return &Service{repo: repo}
}

// Create creates a task for the user.
func (s *Service) Create(userID uint, title, description, priority string, dueDate *time.Time) (*models.Task, error) {
	if priority == "" {
		priority = "medium"
	}
	task := &models.Task{
		OwnerID:     userID,
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
	}
	if err := s.repo.Create(task); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns the user's tasks, optionally filtered by completion state.
func (s *Service) List(userID uint, completed *bool) ([]models.Task, error) {
	return s.repo.ListForUser(userID, completed)
}

// Get returns one of the user's tasks.
func (s *Service) Get(userID, taskID uint) (*models.Task, error) {
	return s.owned(userID, taskID)
}

// Update edits a task; empty fields keep their value.
func (s *Service) Update(userID, taskID uint, title, description, priority string, dueDate *time.Time, completed *bool) (*models.Task, error) {
	task, err := s.owned(userID, taskID)
	if err != nil {
		return nil, err
	}

	if title != "" {
		task.Title = title
	}
	if description != "" {
		task.Description = description
	}
	if priority != "" {
		task.Priority = priority
	}
	if dueDate != nil {
		task.DueDate = dueDate
	}
	if completed != nil {
		task.Completed = *completed
	}
	if err := s.repo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Complete marks a task completed. Idempotent.
func (s *Service) Complete(userID, taskID uint) (*models.Task, error) {
	task, err := s.owned(userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Completed {
		return task, nil
	}
	task.Completed = true
	if err := s.repo.Update(task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task.
func (s *Service) Delete(userID, taskID uint) error {
	if _, err := s.owned(userID, taskID); err != nil {
		return err
	}
	return s.repo.Delete(taskID)
}

func (s *Service) owned(userID, taskID uint) (*models.Task, error) {
	task, err := s.repo.GetByID(taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if task.OwnerID != userID {
		return nil, ErrNotFound
	}
	return task, nil
}
