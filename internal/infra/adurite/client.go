package adurite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uqe_market/internal/domain"
)

// aduriteEntry mirrors one raw listing object. The API is loose with types:
// numeric fields arrive as numbers or strings depending on the listing, so
// everything is coerced after decoding.
type aduriteEntry struct {
	LimitedID   any    `json:"limited_id"`
	LimitedName string `json:"limited_name"`
	RAP         any    `json:"rap"`
	Price       any    `json:"price"`
}

// aduriteResponse represents the marketplace payload, a doubly nested
// object-of-objects keyed by an opaque listing key.
type aduriteResponse struct {
	Items struct {
		Items map[string]aduriteEntry `json:"items"`
	} `json:"items"`
}

// Client fetches the resale marketplace listings
type Client struct {
	apiURL     string
	userAgent  string
	httpClient *http.Client
}

// New creates a listings client. The URL may point at the upstream API
// directly or at the relay.
func New(apiURL, userAgent string) *Client {
	return &Client{
		apiURL:    apiURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchListings fetches every current listing. Duplicate ids are expected
// (one listing per seller); deduplication belongs to the enrichment
// pipeline, not here. A missing items object yields an empty slice.
func (c *Client) FetchListings(ctx context.Context) ([]domain.RawListing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, domain.NewUpstreamError("adurite", "request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("adurite", "get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUpstreamStatusError("adurite", "get", resp.StatusCode,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError("adurite", "read", err)
	}

	var data aduriteResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.NewUpstreamError("adurite", "decode", err)
	}

	listings := make([]domain.RawListing, 0, len(data.Items.Items))
	for _, e := range data.Items.Items {
		name := e.LimitedName
		if name == "" {
			name = "Unknown"
		}
		listings = append(listings, domain.RawListing{
			ID:       coerceInt64(e.LimitedID),
			Name:     name,
			RAP:      coerceInt64(e.RAP),
			PriceRaw: coerceString(e.Price),
		})
	}
	return listings, nil
}

// coerceInt64 converts a number-or-string field to int64; anything
// unparseable is 0.
func coerceInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", "")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// coerceString renders a number-or-string field as its raw string form.
// Comma separators are preserved here; the pipeline strips them.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "0"
	}
}
