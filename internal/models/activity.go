package models

import (
	"time"
)

type ActivityType string

const (
	ActivityTypeReport       ActivityType = "report"
	ActivityTypeVerification ActivityType = "verification"
	ActivityTypeComment      ActivityType = "comment"
)

// Activity 不可变的动态记录，ReportTitle 是事件发生时的标题快照
type Activity struct {
	ID            string       `json:"id"`
	Type          ActivityType `json:"type"`
	ReportID      string       `json:"reportId"` // 弱引用
	ReportTitle   string       `json:"reportTitle"`
	WalletAddress string       `json:"walletAddress"` // Actor
	CreatedAt     time.Time    `json:"createdAt"`
}

// LeaderboardEntry is derived on every request and never stored.
type LeaderboardEntry struct {
	Wallet string `json:"wallet"`
	Count  int    `json:"count"`
}

type Leaderboard struct {
	TopReporters []LeaderboardEntry `json:"topReporters"`
	TopVerifiers []LeaderboardEntry `json:"topVerifiers"`
}
