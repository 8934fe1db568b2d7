package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"uqe_market/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage defines the interface for data persistence
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a new SQLite storage instance
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(&domain.ItemInfo{}, &domain.AppConfig{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "UqeMarket", "data", "market.db"), nil
}

// ======================================================================================
// Item Operations
// ======================================================================================

// UpsertItem creates or updates item metadata
func (s *Storage) UpsertItem(item *domain.ItemInfo) error {
	return s.db.Save(item).Error
}

// GetItem retrieves item metadata by id
func (s *Storage) GetItem(id int64) (*domain.ItemInfo, error) {
	var item domain.ItemInfo
	err := s.db.First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	return &item, err
}

// GetAllItems retrieves all persisted items
func (s *Storage) GetAllItems() ([]domain.ItemInfo, error) {
	var items []domain.ItemInfo
	err := s.db.Find(&items).Error
	return items, err
}

// ToggleFavorite toggles the favorite status of an item, creating the row
// on first toggle so favorites work before a thumbnail sync has run
func (s *Storage) ToggleFavorite(id int64) (bool, error) {
	var item domain.ItemInfo
	err := s.db.First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		item = domain.ItemInfo{ID: id, IsFavorite: true}
		return true, s.db.Save(&item).Error
	}
	if err != nil {
		return false, err
	}

	item.IsFavorite = !item.IsFavorite
	err = s.db.Save(&item).Error
	return item.IsFavorite, err
}

// FavoriteIDs returns the set of ids currently marked favorite
func (s *Storage) FavoriteIDs() (map[int64]bool, error) {
	var items []domain.ItemInfo
	if err := s.db.Where("is_favorite = ?", true).Find(&items).Error; err != nil {
		return nil, err
	}

	out := make(map[int64]bool, len(items))
	for _, it := range items {
		out[it.ID] = true
	}
	return out, nil
}

// DeleteItem deletes an item from the database
func (s *Storage) DeleteItem(id int64) error {
	return s.db.Where("id = ?", id).Delete(&domain.ItemInfo{}).Error
}

// ======================================================================================
// Config Operations
// ======================================================================================

// SaveConfig saves a user preference
func (s *Storage) SaveConfig(key, value string) error {
	config := domain.AppConfig{
		Key:   key,
		Value: value,
	}
	return s.db.Save(&config).Error
}

// LoadConfigMap loads all user preferences as a map
func (s *Storage) LoadConfigMap() (map[string]string, error) {
	var configs []domain.AppConfig
	if err := s.db.Find(&configs).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, cfg := range configs {
		result[cfg.Key] = cfg.Value
	}
	return result, nil
}
