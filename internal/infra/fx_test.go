package infra

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"uqe_market/internal/domain"

	"github.com/shopspring/decimal"
)

func TestFXClient_FetchRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("from") != "USD" || r.URL.Query().Get("to") != "SGD" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"amount":1.0,"base":"USD","date":"2025-08-29","rates":{"SGD":1.35}}`))
	}))
	defer server.Close()

	client := NewFXClient(server.URL, "USD", "SGD")
	rate, err := client.FetchRate(context.Background())
	if err != nil {
		t.Fatalf("FetchRate failed: %v", err)
	}
	if !rate.Equal(decimal.NewFromFloat(1.35)) {
		t.Errorf("expected rate 1.35, got %s", rate)
	}
}

func TestFXClient_MissingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"amount":1.0,"base":"USD","rates":{}}`))
	}))
	defer server.Close()

	client := NewFXClient(server.URL, "USD", "SGD")
	_, err := client.FetchRate(context.Background())
	if err == nil {
		t.Fatal("missing rate should return error")
	}
	if !errors.Is(err, domain.ErrRateMissing) {
		t.Errorf("expected ErrRateMissing, got %v", err)
	}
}

func TestFXClient_UpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewFXClient(server.URL, "USD", "SGD")
	_, err := client.FetchRate(context.Background())
	if err == nil {
		t.Fatal("non-200 should return error")
	}
	if !domain.IsUpstream(err) {
		t.Errorf("expected UpstreamError, got %T", err)
	}

	var ue *domain.UpstreamError
	if errors.As(err, &ue) && ue.Status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 on error, got %d", ue.Status)
	}
}

func TestFXClient_NoRetry(t *testing.T) {
	// Spec: nothing is retried beyond the periodic refresh timer.
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewFXClient(server.URL, "USD", "SGD")
	_, err := client.FetchRate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}
