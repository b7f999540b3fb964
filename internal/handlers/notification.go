package handlers

import (
	"github.com/gin-gonic/gin"

	"suarawarga/internal/services"
)

type NotificationHandler struct {
	svc *services.Services
}

func NewNotificationHandler(svc *services.Services) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List GET /api/notifications?walletAddress=
// 未传参数时使用会话中的钱包
func (h *NotificationHandler) List(c *gin.Context) {
	wallet := walletOr(c, c.Query("walletAddress"))

	notifications, err := h.svc.Aggregation.Notifications(c.Request.Context(), wallet)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{
		"notifications": notifications,
		"unread":        len(notifications),
	})
}
