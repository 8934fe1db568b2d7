package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"uqe_market/internal/infra"
)

// relay forwards GET requests to the upstream marketplaces on behalf of
// browser clients that cannot call them directly. Responses are mirrored
// verbatim: status, content type and body.
type relay struct {
	rolimonsURL string
	aduriteURL  string
	thumbsURL   string
	thumbSize   string
	thumbFormat string
	userAgent   string
	client      *http.Client
	metrics     *infra.Metrics
}

func newRelay(cfg *infra.Config) *relay {
	return &relay{
		rolimonsURL: cfg.API.Rolimons.URL,
		aduriteURL:  cfg.API.Adurite.URL,
		thumbsURL:   cfg.API.Thumbnails.URL,
		thumbSize:   cfg.API.Thumbnails.Size,
		thumbFormat: cfg.API.Thumbnails.Format,
		userAgent:   infra.DefaultUserAgent,
		client:      &http.Client{Timeout: 15 * time.Second},
		metrics:     infra.GlobalMetrics,
	}
}

func (rl *relay) handleRolimons(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, "rolimons", rl.rolimonsURL)
}

func (rl *relay) handleAdurite(w http.ResponseWriter, r *http.Request) {
	rl.forward(w, r, "adurite", rl.aduriteURL)
}

// handleThumbnails requires assetIds and fills in default size and format
// when the caller omits them
func (rl *relay) handleThumbnails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("assetIds") == "" {
		writeError(w, http.StatusBadRequest, "assetIds query parameter is required")
		return
	}
	if q.Get("size") == "" {
		q.Set("size", rl.thumbSize)
	}
	if q.Get("format") == "" {
		q.Set("format", rl.thumbFormat)
	}
	rl.forward(w, r, "thumbnails", rl.thumbsURL+"?"+q.Encode())
}

// forward issues the upstream GET and mirrors the response. Upstream
// failures come back as 502 with a descriptive body so the dashboard can
// show what went wrong.
func (rl *relay) forward(w http.ResponseWriter, r *http.Request, name, target string) {
	rl.metrics.RecordRelayRequest()

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("%s relay failed: %v", name, err))
		return
	}
	req.Header.Set("User-Agent", rl.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := rl.client.Do(req)
	if err != nil {
		rl.metrics.RecordUpstreamError()
		writeError(w, http.StatusBadGateway, fmt.Sprintf("%s relay failed: %v", name, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		rl.metrics.RecordUpstreamError()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		writeError(w, http.StatusBadGateway,
			fmt.Sprintf("%s relay failed: %d - %s", name, resp.StatusCode, string(body)))
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
