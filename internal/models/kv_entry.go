package models

import (
	"time"
)

// KVEntry 是 gorm 存储后端的键值行，Version 用于乐观并发控制
type KVEntry struct {
	Key       string    `gorm:"column:store_key;primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	Version   uint64    `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_store"
}
