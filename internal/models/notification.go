package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeVerified     NotificationType = "verified"     // 自己的报告已达到验证阈值
	NotificationTypeVerification NotificationType = "verification" // 他人验证了自己的报告
	NotificationTypeComment      NotificationType = "comment"      // 他人评论了自己的报告
)

// Notification is derived from a wallet's own reports; it is not persisted.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	ReportID    string           `json:"reportId"`
	ReportTitle string           `json:"reportTitle"`
	Actor       string           `json:"actor,omitempty"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"createdAt"`
}
