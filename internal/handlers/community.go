package handlers

import (
	"github.com/gin-gonic/gin"

	"suarawarga/internal/models"
	"suarawarga/internal/services"
	"suarawarga/internal/utils"
)

// CommunityHandler serves the aggregate views: activity feed, leaderboard,
// stats and location lists.
type CommunityHandler struct {
	svc *services.Services
}

func NewCommunityHandler(svc *services.Services) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

// Activities GET /api/activities?limit=
func (h *CommunityHandler) Activities(c *gin.Context) {
	limit := utils.ClampLimit(c.Query("limit"), services.DefaultActivityLimit, services.MaxActivityLimit)
	activities, err := h.svc.Aggregation.RecentActivities(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"activities": activities})
}

// Leaderboard GET /api/leaderboard
func (h *CommunityHandler) Leaderboard(c *gin.Context) {
	lb, err := h.svc.Aggregation.Leaderboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"leaderboard": lb})
}

// Stats GET /api/stats
func (h *CommunityHandler) Stats(c *gin.Context) {
	st, err := h.svc.Aggregation.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"stats": st})
}

// Locations GET /api/locations?provinsi=
func (h *CommunityHandler) Locations(c *gin.Context) {
	loc, err := h.svc.Aggregation.Locations(c.Request.Context(), c.Query("provinsi"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"locations": loc})
}

// Categories GET /api/categories
func (h *CommunityHandler) Categories(c *gin.Context) {
	ok(c, gin.H{"categories": models.Categories()})
}
