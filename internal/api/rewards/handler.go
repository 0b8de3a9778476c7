// Package rewards provides REST API handlers for earned badges, the badge
// catalog, and the streak summary.
package rewards

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelez9/habitflow/internal/api/middleware"
	"github.com/avelez9/habitflow/internal/badges"
	"github.com/avelez9/habitflow/internal/cache"
	"github.com/avelez9/habitflow/internal/models"
	"github.com/avelez9/habitflow/internal/repository"
	"github.com/avelez9/habitflow/pkg/logger"
)

// UserStore loads streak state.
type UserStore interface {
	GetByID(id uint) (*models.User, error)
}

// BadgeStore loads earned badges.
type BadgeStore interface {
	ListForUser(userID uint) ([]models.UserBadge, error)
	NamesForUser(userID uint) (map[string]bool, error)
}

// SummaryCache caches streak summaries. May be nil.
type SummaryCache interface {
	Get(ctx context.Context, userID uint) *cache.StreakSummary
	Set(ctx context.Context, userID uint, summary *cache.StreakSummary)
}

// Handler handles badge and streak API requests.
type Handler struct {
	users   UserStore
	awards  BadgeStore
	catalog *badges.Catalog
	cache   SummaryCache
	log     *logger.Logger
}

// NewHandler creates a new rewards handler. summaryCache may be nil.
func NewHandler(users UserStore, awards BadgeStore, catalog *badges.Catalog, summaryCache SummaryCache, log *logger.Logger) *Handler {
	return &Handler{users: users, awards: awards, catalog: catalog, cache: summaryCache, log: log}
}

// catalogEntry is a catalog milestone annotated with the user's standing.
type catalogEntry struct {
	badges.Milestone
	Earned   bool `json:"earned"`
	Progress int  `json:"progress"`
}

// ListBadges returns the user's earned badges, newest first, enriched with
// catalog icons and descriptions, plus the next badge to chase.
// GET /api/badges.
func (h *Handler) ListBadges(c *gin.Context) {
	userID := middleware.UserID(c)

	earned, err := h.awards.ListForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to list badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to list badges")
		return
	}

	type earnedBadge struct {
		models.UserBadge
		Icon        string `json:"icon"`
		Description string `json:"description"`
	}
	enriched := make([]earnedBadge, 0, len(earned))
	for _, b := range earned {
		e := earnedBadge{UserBadge: b}
		if m := h.catalog.ByName(b.Name); m != nil {
			e.Icon = m.Icon
			e.Description = m.Description
		}
		enriched = append(enriched, e)
	}

	var nextBadge *badges.Milestone
	if user, err := h.users.GetByID(userID); err == nil {
		nextBadge = h.catalog.Next(user.Streak)
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       enriched,
		"total_badges": len(enriched),
		"next_badge":   nextBadge,
	})
}

// Catalog returns every milestone with the user's earned flag and progress
// toward it.
// GET /api/badges/catalog.
func (h *Handler) Catalog(c *gin.Context) {
	userID := middleware.UserID(c)

	user, err := h.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to load badge catalog")
		return
	}

	earned, err := h.awards.NamesForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load earned badges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to load badge catalog")
		return
	}

	entries := make([]catalogEntry, 0, h.catalog.Len())
	for _, m := range h.catalog.All() {
		progress := 100
		if !earned[m.Name] {
			progress = user.Streak * 100 / m.StreakRequired
			if progress > 100 {
				progress = 100
			}
		}
		entries = append(entries, catalogEntry{
			Milestone: m,
			Earned:    earned[m.Name],
			Progress:  progress,
		})
	}

	c.JSON(http.StatusOK, gin.H{"catalog": entries, "streak": user.Streak})
}

// Streak returns the current streak summary, served from cache when warm.
// GET /api/streak.
func (h *Handler) Streak(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	if h.cache != nil {
		if summary := h.cache.Get(ctx, userID); summary != nil {
			c.JSON(http.StatusOK, gin.H{"streak": summary, "cached": true})
			return
		}
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.errorResponse(c, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to load user")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to load streak")
		return
	}

	summary := &cache.StreakSummary{
		Streak:         user.Streak,
		LastStreakDate: user.LastStreakDate,
		NextBadge:      h.catalog.Next(user.Streak),
	}
	if h.cache != nil {
		h.cache.Set(ctx, userID, summary)
	}

	c.JSON(http.StatusOK, gin.H{"streak": summary, "cached": false})
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
