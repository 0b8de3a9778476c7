// Package habits provides REST API handlers for habit management and
// completion toggling.
package habits

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelez9/habitflow/internal/api/middleware"
	"github.com/avelez9/habitflow/internal/dates"
	"github.com/avelez9/habitflow/internal/models"
	habitsvc "github.com/avelez9/habitflow/internal/service/habits"
	"github.com/avelez9/habitflow/internal/service/streak"
	"github.com/avelez9/habitflow/pkg/logger"
)

// HabitService interface for habit operations.
type HabitService interface {
	Create(userID uint, name, description, color, icon string) (*models.Habit, error)
	List(userID uint) ([]models.Habit, error)
	Get(userID, habitID uint) (*models.Habit, error)
	Update(userID, habitID uint, name, description, color, icon string) (*models.Habit, error)
	Delete(userID, habitID uint) error
	ToggleCompletion(ctx context.Context, userID, habitID uint) (*models.Habit, *streak.Result, error)
	Progress(userID uint) (*habitsvc.Progress, error)
}

// Handler handles habit API requests.
type Handler struct {
	habits HabitService
	log    *logger.Logger
}

// NewHandler creates a new habit handler.
func NewHandler(habitService HabitService, log *logger.Logger) *Handler {
	return &Handler{habits: habitService, log: log}
}

type createHabitRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type updateHabitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type toggleRequest struct {
	// Accepted for backward compatibility with older clients; the server
	// computes the effective day itself and only validates the shape here.
	Date string `json:"date"`
}

// Create creates a habit.
// POST /api/habits.
func (h *Handler) Create(c *gin.Context) {
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	habit, err := h.habits.Create(middleware.UserID(c), req.Name, req.Description, req.Color, req.Icon)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create habit")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to create habit")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"habit": habit})
}

// List returns the user's habits with completion dates.
// GET /api/habits.
func (h *Handler) List(c *gin.Context) {
	list, err := h.habits.List(middleware.UserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list habits")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to list habits")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habits": list, "total": len(list)})
}

// Get returns one habit.
// GET /api/habits/:id.
func (h *Handler) Get(c *gin.Context) {
	habitID, err := h.parseHabitID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	habit, err := h.habits.Get(middleware.UserID(c), habitID)
	if err != nil {
		h.respondHabitError(c, err, habitID, "Failed to load habit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habit})
}

// Update edits a habit's display metadata.
// PUT /api/habits/:id.
func (h *Handler) Update(c *gin.Context) {
	habitID, err := h.parseHabitID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	habit, err := h.habits.Update(middleware.UserID(c), habitID, req.Name, req.Description, req.Color, req.Icon)
	if err != nil {
		h.respondHabitError(c, err, habitID, "Failed to update habit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habit})
}

// Delete removes a habit and its completion history.
// DELETE /api/habits/:id.
func (h *Handler) Delete(c *gin.Context) {
	habitID, err := h.parseHabitID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.habits.Delete(middleware.UserID(c), habitID); err != nil {
		h.respondHabitError(c, err, habitID, "Failed to delete habit")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "habit deleted"})
}

// Toggle flips the habit's completion for the effective day. The response
// carries the refreshed habit and, when the streak engine ran and changed
// state, its outcome; streak is null otherwise.
// POST /api/habits/:id/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	habitID, err := h.parseHabitID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req toggleRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		if req.Date != "" && !dates.Valid(req.Date) {
			h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
			return
		}
	}

	userID := middleware.UserID(c)
	habit, result, err := h.habits.ToggleCompletion(c.Request.Context(), userID, habitID)
	if err != nil {
		h.respondHabitError(c, err, habitID, "Failed to toggle habit")
		return
	}

	h.log.Info().
		Uint("user_id", userID).
		Uint("habit_id", habitID).
		Bool("streak_updated", result != nil && result.Updated).
		Msg("Habit toggled")

	c.JSON(http.StatusOK, gin.H{"habit": habit, "streak": result})
}

// Progress returns today's completion summary.
// GET /api/habits/progress.
func (h *Handler) Progress(c *gin.Context) {
	progress, err := h.habits.Progress(middleware.UserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute progress")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to compute progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

func (h *Handler) parseHabitID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid habit ID: %s", idStr)
	}
	return uint(id), nil
}

func (h *Handler) respondHabitError(c *gin.Context, err error, habitID uint, message string) {
	if errors.Is(err, habitsvc.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Habit not found")
		return
	}
	h.log.Error().Err(err).Uint("habit_id", habitID).Msg(message)
	h.errorResponse(c, http.StatusInternalServerError, message)
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
