// Package auth provides REST API handlers for registration, login, and
// profile management.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelez9/habitflow/internal/api/middleware"
	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/service/users"
	"github.com/avelez9/habitflow/pkg/logger"
)

// UserService interface for account operations.
type UserService interface {
	Register(name, email, password string) (*models.User, string, error)
	Login(email, password string) (*models.User, string, error)
	Get(userID uint) (*models.User, error)
	UpdateProfile(userID uint, name, email string) (*models.User, error)
	ChangePassword(userID uint, current, next string) error
}

// Handler handles auth API requests.
type Handler struct {
	users UserService
	log   *logger.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(userService UserService, log *logger.Logger) *Handler {
	return &Handler{users: userService, log: log}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// Register creates a new account.
// POST /api/users/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, tok, err := h.users.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			h.errorResponse(c, http.StatusConflict, "Email already registered")
			return
		}
		h.log.Error().Err(err).Msg("Failed to register user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to register")
		return
	}

	h.log.Info().Uint("user_id", user.ID).Msg("User registered")
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": tok})
}

// Login authenticates an account.
// POST /api/users/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, tok, err := h.users.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			h.errorResponse(c, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.log.Error().Err(err).Msg("Failed to log in user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": tok})
}

// Me returns the authenticated account.
// GET /api/users/me.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.users.Get(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Msg("Failed to load user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile edits the authenticated account's name and email.
// PUT /api/users/me.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(middleware.UserID(c), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			h.errorResponse(c, http.StatusConflict, "Email already registered")
		case errors.Is(err, users.ErrNotFound):
			h.errorResponse(c, http.StatusNotFound, "User not found")
		default:
			h.log.Error().Err(err).Msg("Failed to update profile")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to update profile")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword rotates the authenticated account's password.
// PUT /api/users/password.
func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.users.ChangePassword(middleware.UserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidCredentials):
			h.errorResponse(c, http.StatusUnauthorized, "Current password is incorrect")
		case errors.Is(err, users.ErrNotFound):
			h.errorResponse(c, http.StatusNotFound, "User not found")
		default:
			h.log.Error().Err(err).Msg("Failed to change password")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to change password")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
