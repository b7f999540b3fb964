package models

import (
	"time"
)

// Comment 评论，创建后不可修改，只能追加到所属报告
type Comment struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"createdAt"`
}
