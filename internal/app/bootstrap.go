package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"uqe_market/internal/domain"
	"uqe_market/internal/infra"
	"uqe_market/internal/infra/storage"
	"uqe_market/internal/infra/thumbs"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config     *infra.Config
	Storage    *storage.Storage
	Downloader *thumbs.Downloader
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (DB, Dir, etc.)
func (b *Bootstrap) Initialize() error {
	slog.Info("🚀 Bootstrapping Uqe Market...")

	// 1. Load Config
	cfg, err := infra.LoadConfig("configs/config.yaml")
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	store, err := storage.NewStorage()
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("✅ Database initialized")

	// 4. Initialize Thumbnail Downloader
	downloader, err := thumbs.New(cfg.API.Thumbnails.URL, cfg.API.Thumbnails.Size, cfg.API.Thumbnails.Format)
	if err != nil {
		return err
	}
	b.Downloader = downloader
	slog.Info("✅ Thumbnail downloader ready")

	return nil
}

// SyncAssets persists metadata rows and thumbnails for the given items in
// the background, so the dashboard has local art before it is requested
func (b *Bootstrap) SyncAssets(ctx context.Context, items []domain.EnrichedItem) {
	slog.Info("🔄 Starting asset synchronization...", slog.Int("items", len(items)))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5) // Limit concurrent downloads

	for _, it := range items {
		wg.Add(1)
		go func(id int64, name string) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			// 1. Upsert to DB
			info := &domain.ItemInfo{
				ID:        id,
				Name:      name,
				UpdatedAt: time.Now(),
			}

			// Check if exists to preserve IsFavorite
			if existing, _ := b.Storage.GetItem(id); existing != nil {
				info.IsFavorite = existing.IsFavorite
				info.ThumbPath = existing.ThumbPath
				info.LastSyncedAt = existing.LastSyncedAt
			}

			if err := b.Storage.UpsertItem(info); err != nil {
				slog.Error("Failed to upsert item", slog.Int64("id", id), slog.Any("error", err))
			}

			// 2. Download Thumbnail (if missing)
			path, err := b.Downloader.Download(ctx, id)
			if err != nil {
				slog.Warn("Failed to download thumbnail", slog.Int64("id", id), slog.Any("error", err))
			} else if path != "" && path != info.ThumbPath {
				info.ThumbPath = path
				info.LastSyncedAt = time.Now()
				b.Storage.UpsertItem(info)
			}
		}(it.ID, it.Name)
	}

	wg.Wait()
	slog.Info("✨ Asset synchronization completed")
}
