// Package tasks provides REST API handlers for task management.
package tasks

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelez9/habitflow/internal/api/middleware"
	"github.com/avelez9/habitflow/internal/models"
	tasksvc "github.com/avelez9/habitflow/internal/service/tasks"
	"github.com/avelez9/habitflow/pkg/logger"
)

// TaskService interface for task operations.
type TaskService interface {
	Create(userID uint, title, description, priority string, dueDate *time.Time) (*models.Task, error)
	List(userID uint, completed *bool) ([]models.Task, error)
	Get(userID, taskID uint) (*models.Task, error)
	Update(userID, taskID uint, title, description, priority string, dueDate *time.Time, completed *bool) (*models.Task, error)
	Complete(userID, taskID uint) (*models.Task, error)
	Delete(userID, taskID uint) error
}

// Handler handles task API requests.
type Handler struct {
	tasks TaskService
	log   *logger.Logger
}

// NewHandler creates a new task handler.
func NewHandler(taskService TaskService, log *logger.Logger) *Handler {
	return &Handler{tasks: taskService, log: log}
}

type createTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
	Completed   *bool      `json:"completed"`
}

// Create creates a task.
// POST /api/tasks.
func (h *Handler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Create(middleware.UserID(c), req.Title, req.Description, req.Priority, req.DueDate)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create task")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// List returns the user's tasks.
// GET /api/tasks?completed=true|false.
func (h *Handler) List(c *gin.Context) {
	var completed *bool
	if raw := c.Query("completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid completed filter: %s", raw))
			return
		}
		completed = &v
	}

	list, err := h.tasks.List(middleware.UserID(c), completed)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list tasks")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list, "total": len(list)})
}

// Get returns one task.
// GET /api/tasks/:id.
func (h *Handler) Get(c *gin.Context) {
	taskID, err := h.parseTaskID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Get(middleware.UserID(c), taskID)
	if err != nil {
		h.respondTaskError(c, err, taskID, "Failed to load task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Update edits a task.
// PUT /api/tasks/:id.
func (h *Handler) Update(c *gin.Context) {
	taskID, err := h.parseTaskID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Update(middleware.UserID(c), taskID, req.Title, req.Description, req.Priority, req.DueDate, req.Completed)
	if err != nil {
		h.respondTaskError(c, err, taskID, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Complete marks a task completed.
// POST /api/tasks/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	taskID, err := h.parseTaskID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	task, err := h.tasks.Complete(middleware.UserID(c), taskID)
	if err != nil {
		h.respondTaskError(c, err, taskID, "Failed to complete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// Delete removes a task.
// DELETE /api/tasks/:id.
func (h *Handler) Delete(c *gin.Context) {
	taskID, err := h.parseTaskID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.tasks.Delete(middleware.UserID(c), taskID); err != nil {
		h.respondTaskError(c, err, taskID, "Failed to delete task")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

func (h *Handler) parseTaskID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid task ID: %s", idStr)
	}
	return uint(id), nil
}

func (h *Handler) respondTaskError(c *gin.Context, err error, taskID uint, message string) {
	if errors.Is(err, tasksvc.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Task not found")
		return
	}
	h.log.Error().Err(err).Uint("task_id", taskID).Msg(message)
	h.errorResponse(c, http.StatusInternalServerError, message)
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
