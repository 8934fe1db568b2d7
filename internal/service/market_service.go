package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"uqe_market/internal/domain"
	"uqe_market/internal/enrich"
	"uqe_market/internal/infra"
	"uqe_market/internal/view"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// snapshot is one successfully enriched dataset. It is the single owner of
// the cached list: a new refresh builds a whole new snapshot and swaps it
// in, never mutates the old one.
type snapshot struct {
	items     []domain.EnrichedItem
	fxRate    decimal.Decimal
	fetchedAt time.Time
}

// age returns how old the snapshot is
func (s *snapshot) age(now time.Time) time.Duration {
	return now.Sub(s.fetchedAt)
}

// fresh reports whether the snapshot is still inside the cache window
func (s *snapshot) fresh(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && s.age(now) < ttl
}

// RefreshEvent describes the outcome of one refresh cycle, delivered to
// websocket subscribers
type RefreshEvent struct {
	Generation uint64    `json:"generation"`
	ItemCount  int       `json:"item_count"`
	Error      string    `json:"error,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Status is the externally visible refresh state
type Status struct {
	ItemCount   int       `json:"item_count"`
	FXRate      string    `json:"fx_rate"`
	LastRefresh time.Time `json:"last_refresh"`
	LastError   string    `json:"last_error,omitempty"`
	CacheTTLSec int       `json:"cache_ttl_sec"`
}

// MarketService owns the enriched item list. It runs the periodic
// fetch-enrich cycle, guards against stale cycle results overwriting newer
// ones, and answers dashboard queries from the current snapshot.
type MarketService struct {
	listings domain.ListingSource
	details  domain.DetailSource
	rates    domain.RateSource
	pipeline *enrich.Pipeline
	repo     domain.ItemRepository // optional favorites overlay
	metrics  *infra.Metrics

	interval time.Duration
	cacheTTL time.Duration

	mu        sync.RWMutex
	snap      *snapshot
	lastErr   error
	nextGen   uint64 // generation handed to the next cycle
	installed uint64 // highest generation whose result was installed

	subsMu sync.Mutex
	subs   map[chan RefreshEvent]struct{}

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewMarketService creates a service with no data yet; the first snapshot
// appears after the first successful refresh.
func NewMarketService(listings domain.ListingSource, details domain.DetailSource, rates domain.RateSource, pipeline *enrich.Pipeline, interval, cacheTTL time.Duration) *MarketService {
	return &MarketService{
		listings: listings,
		details:  details,
		rates:    rates,
		pipeline: pipeline,
		metrics:  infra.GlobalMetrics,
		interval: interval,
		cacheTTL: cacheTTL,
		subs:     make(map[chan RefreshEvent]struct{}),
		trigger:  make(chan struct{}, 1),
	}
}

// SetRepository attaches the favorites store. Optional: without it, items
// simply carry is_favorite=false.
func (s *MarketService) SetRepository(repo domain.ItemRepository) {
	s.repo = repo
}

// Start begins the periodic refresh loop
func (s *MarketService) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Fetch immediately on start
		if err := s.Refresh(ctx); err != nil {
			slog.Warn("Initial market refresh failed", slog.Any("error", err))
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Market refresh loop stopped")
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					slog.Warn("Scheduled market refresh failed", slog.Any("error", err))
				}
			case <-s.trigger:
				if err := s.Refresh(ctx); err != nil {
					slog.Warn("Manual market refresh failed", slog.Any("error", err))
				}
			}
		}
	}()
}

// Stop stops the refresh loop
func (s *MarketService) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
	}
}

// TriggerRefresh requests a refresh outside the timer schedule. Coalesces:
// if a manual refresh is already queued this is a no-op.
func (s *MarketService) TriggerRefresh() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Refresh runs one full fetch-enrich cycle. The three upstream fetches run
// concurrently and the cycle fails as a whole if any of them fails; the
// previous snapshot is then kept on display. A fresh-enough snapshot
// short-circuits the cycle entirely.
func (s *MarketService) Refresh(ctx context.Context) error {
	now := time.Now()

	s.mu.Lock()
	if s.snap != nil && s.snap.fresh(now, s.cacheTTL) {
		s.mu.Unlock()
		s.metrics.RecordCacheHit()
		return nil
	}
	s.nextGen++
	gen := s.nextGen
	s.mu.Unlock()

	var (
		rawListings []domain.RawListing
		details     map[int64]domain.ItemDetail
		fxRate      decimal.Decimal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rawListings, err = s.listings.FetchListings(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		details, err = s.details.FetchDetails(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fxRate, err = s.rates.FetchRate(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.metrics.RecordUpstreamError()
		s.metrics.RecordRefreshFailure()
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.broadcast(RefreshEvent{Generation: gen, Error: "could not fetch data from one or more sources", FetchedAt: now})
		return err
	}

	items := s.pipeline.Enrich(rawListings, details, fxRate)
	s.applyFavorites(items)

	s.mu.Lock()
	if gen <= s.installed {
		// A cycle started after this one already finished; its snapshot is
		// newer, so this result is dropped.
		s.mu.Unlock()
		s.metrics.RecordStaleDropped()
		return nil
	}
	s.installed = gen
	s.snap = &snapshot{items: items, fxRate: fxRate, fetchedAt: now}
	s.lastErr = nil
	s.mu.Unlock()

	s.metrics.RecordRefresh(len(items))
	slog.Info("Market snapshot refreshed",
		slog.Uint64("generation", gen),
		slog.Int("items", len(items)),
		slog.String("fx_rate", fxRate.String()),
	)
	s.broadcast(RefreshEvent{Generation: gen, ItemCount: len(items), FetchedAt: now})
	return nil
}

// applyFavorites overlays persisted favorite flags onto a fresh item list
func (s *MarketService) applyFavorites(items []domain.EnrichedItem) {
	if s.repo == nil {
		return
	}
	favs, err := s.repo.FavoriteIDs()
	if err != nil {
		slog.Warn("Failed to load favorites", slog.Any("error", err))
		return
	}
	for i := range items {
		items[i].IsFavorite = favs[items[i].ID]
	}
}

// Query derives the displayed subset from the current snapshot
func (s *MarketService) Query(p view.Params) ([]domain.EnrichedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return nil, domain.ErrNoSnapshot
	}
	return view.Derive(s.snap.items, p), nil
}

// ToggleFavorite flips the persisted favorite flag and patches the current
// snapshot so the change shows up without waiting for the next refresh
func (s *MarketService) ToggleFavorite(id int64) (bool, error) {
	if s.repo == nil {
		return false, domain.ErrNoSnapshot
	}
	fav, err := s.repo.ToggleFavorite(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.snap != nil {
		for i := range s.snap.items {
			if s.snap.items[i].ID == id {
				s.snap.items[i].IsFavorite = fav
				break
			}
		}
	}
	s.mu.Unlock()
	return fav, nil
}

// Status reports the current refresh state
func (s *MarketService) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{CacheTTLSec: int(s.cacheTTL.Seconds())}
	if s.snap != nil {
		st.ItemCount = len(s.snap.items)
		st.FXRate = s.snap.fxRate.String()
		st.LastRefresh = s.snap.fetchedAt
	}
	if s.lastErr != nil {
		// One generic message regardless of which source failed.
		st.LastError = "could not fetch data from one or more sources"
	}
	return st
}

// Subscribe registers a refresh-event listener. The returned cancel
// function must be called to release the channel.
func (s *MarketService) Subscribe() (<-chan RefreshEvent, func()) {
	ch := make(chan RefreshEvent, 4)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	cancel := func() {
		s.subsMu.Lock()
		delete(s.subs, ch)
		s.subsMu.Unlock()
	}
	return ch, cancel
}

// broadcast delivers an event to all subscribers without blocking on slow ones
func (s *MarketService) broadcast(ev RefreshEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- ev:
		default: // slow subscriber, drop
		}
	}
}
