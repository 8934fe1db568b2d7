package domain

import (
	"time"
)

// ItemInfo represents persisted metadata for a limited item
type ItemInfo struct {
	ID           int64     `gorm:"primaryKey" json:"limited_id"`
	Name         string    `json:"name"`
	ThumbPath    string    `json:"thumb_path"`
	IsFavorite   bool      `json:"is_favorite" gorm:"index"` // User favorite status
	LastSyncedAt time.Time `json:"last_synced_at"`           // Last thumbnail sync time
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AppConfig represents user-specific configuration (Key-Value)
type AppConfig struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}
