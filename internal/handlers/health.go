package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"suarawarga/internal/store"
)

type HealthHandler struct {
	store store.Store
}

func NewHealthHandler(st store.Store) *HealthHandler {
	return &HealthHandler{store: st}
}

// Healthz GET /healthz 探测存储是否可读
func (h *HealthHandler) Healthz(c *gin.Context) {
	_, err := h.store.Get(c.Request.Context(), "health:probe")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		_ = c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "store unavailable"})
		return
	}
	ok(c, gin.H{"status": "ok"})
}
