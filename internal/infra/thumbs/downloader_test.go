package thumbs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"uqe_market/internal/domain"
)

func newTestDownloader(t *testing.T, apiURL string) *Downloader {
	t.Helper()
	return &Downloader{
		apiURL:   apiURL,
		size:     "420x420",
		format:   "Png",
		basePath: t.TempDir(),
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func TestResolve(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("assetIds") != "1029025,1365767" {
			t.Errorf("unexpected assetIds: %s", r.URL.Query().Get("assetIds"))
		}
		if r.URL.Query().Get("size") != "420x420" {
			t.Errorf("unexpected size: %s", r.URL.Query().Get("size"))
		}
		w.Write([]byte(`{"data":[
			{"targetId":1029025,"state":"Completed","imageUrl":"https://cdn.example/a.png"},
			{"targetId":1365767,"state":"Pending","imageUrl":""}
		]}`))
	}))
	defer server.Close()

	d := newTestDownloader(t, server.URL)

	urls, err := d.Resolve(context.Background(), []int64{1029025, 1365767})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if urls[1029025] != "https://cdn.example/a.png" {
		t.Errorf("unexpected url: %s", urls[1029025])
	}
	// Entries without an image url are skipped
	if _, ok := urls[1365767]; ok {
		t.Error("pending entry should not be mapped")
	}
}

func TestResolve_EmptyInput(t *testing.T) {
	d := newTestDownloader(t, "http://unused.invalid")

	urls, err := d.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(urls) != 0 {
		t.Errorf("expected empty map, got %v", urls)
	}
}

func TestResolve_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	d := newTestDownloader(t, server.URL)

	_, err := d.Resolve(context.Background(), []int64{1})
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestDownload_CacheHit(t *testing.T) {
	d := newTestDownloader(t, "http://unused.invalid")

	// Pre-seed the cache; no network call should happen.
	cached := d.Path(42)
	if err := os.WriteFile(cached, []byte("png"), 0644); err != nil {
		t.Fatalf("failed to seed cache: %v", err)
	}

	path, err := d.Download(context.Background(), 42)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if path != cached {
		t.Errorf("expected cached path %s, got %s", cached, path)
	}
}
