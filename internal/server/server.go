package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"uqe_market/internal/domain"
	"uqe_market/internal/infra"
	"uqe_market/internal/service"
	"uqe_market/internal/view"
)

// defaultMaxRAP is the upper RAP bound applied when the query omits max_rap
const defaultMaxRAP = 5_000_000

// placeholderThumbURL is served via redirect when a thumbnail cannot be
// resolved; the dashboard shows it instead of a broken image.
const placeholderThumbURL = "https://tr.rbxcdn.com/7c1b6e6e7e6e7e6e7e6e7e6e7e6e7e6e/180/180/Image/Png"

// PrefStore persists user preferences (theme, default filter bounds)
type PrefStore interface {
	SaveConfig(key, value string) error
	LoadConfigMap() (map[string]string, error)
}

// ThumbSource resolves and caches item thumbnails
type ThumbSource interface {
	Download(ctx context.Context, assetID int64) (string, error)
}

// Server exposes the dashboard API, the relay and the websocket feed
type Server struct {
	svc     *service.MarketService
	prefs   PrefStore
	thumbs  ThumbSource
	relay   *relay
	metrics *infra.Metrics
	httpSrv *http.Server
}

// New assembles the server. prefs and thumbs may be nil; the matching
// endpoints then answer 503.
func New(cfg *infra.Config, svc *service.MarketService, prefs PrefStore, thumbs ThumbSource) *Server {
	s := &Server{
		svc:     svc,
		prefs:   prefs,
		thumbs:  thumbs,
		relay:   newRelay(cfg),
		metrics: infra.GlobalMetrics,
	}
	s.httpSrv = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler builds the route table wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/items", s.handleItems)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("POST /api/items/{id}/favorite", s.handleFavorite)
	mux.HandleFunc("GET /api/items/{id}/thumbnail", s.handleThumbnail)
	mux.HandleFunc("GET /api/prefs", s.handleGetPrefs)
	mux.HandleFunc("PUT /api/prefs", s.handlePutPrefs)
	mux.HandleFunc("GET /ws", s.handleWS)

	// Relay: verbatim GET pass-throughs for browser clients.
	mux.HandleFunc("GET /rolimons/items/v1/itemdetails", s.relay.handleRolimons)
	mux.HandleFunc("GET /adurite/market/roblox", s.relay.handleAdurite)
	mux.HandleFunc("GET /roblox/thumbnails", s.relay.handleThumbnails)

	return recoverPanic(withCORS(logRequests(mux)))
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", slog.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(shutdownCtx)
}

type itemsResponse struct {
	Items []domain.EnrichedItem `json:"items"`
	Count int                   `json:"count"`
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := view.Params{
		MinRAP: parseInt64(q.Get("min_rap"), 0),
		MaxRAP: parseInt64(q.Get("max_rap"), defaultMaxRAP),
		Search: q.Get("search"),
		Sort:   view.ParseSortKey(q.Get("sort")),
	}

	items, err := s.svc.Query(params)
	if err == domain.ErrNoSnapshot {
		writeError(w, http.StatusServiceUnavailable, "no data yet, first refresh pending")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse{Items: items, Count: len(items)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.svc.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

type statusResponse struct {
	service.Status
	Metrics infra.MetricsSnapshot `json:"metrics"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:  s.svc.Status(),
		Metrics: s.metrics.Snapshot(),
	})
}

func (s *Server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	fav, err := s.svc.ToggleFavorite(id)
	if err == domain.ErrNoSnapshot {
		writeError(w, http.StatusServiceUnavailable, "favorites store not available")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"limited_id": id, "is_favorite": fav})
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if s.thumbs == nil {
		http.Redirect(w, r, placeholderThumbURL, http.StatusFound)
		return
	}

	path, err := s.thumbs.Download(r.Context(), id)
	if err != nil {
		// Thumbnail misses are expected; fall back to the placeholder.
		slog.Debug("Thumbnail fallback", slog.Int64("id", id), slog.Any("error", err))
		http.Redirect(w, r, placeholderThumbURL, http.StatusFound)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleGetPrefs(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, "preferences store not available")
		return
	}
	m, err := s.prefs.LoadConfigMap()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handlePutPrefs(w http.ResponseWriter, r *http.Request) {
	if s.prefs == nil {
		writeError(w, http.StatusServiceUnavailable, "preferences store not available")
		return
	}

	var body map[string]string
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	for k, v := range body {
		if err := s.prefs.SaveConfig(k, v); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// withCORS adds permissive cross-origin headers; the relay exists for
// browser clients, so every route answers preflight.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Handler panic recovered", slog.Any("panic", rec), slog.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("took", time.Since(start)),
		)
	})
}
