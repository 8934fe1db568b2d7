package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"uqe_market/internal/domain"

	"github.com/shopspring/decimal"
)

// fxResponse represents the Frankfurter API response
type fxResponse struct {
	Amount float64            `json:"amount"`
	Base   string             `json:"base"`
	Date   string             `json:"date"`
	Rates  map[string]float64 `json:"rates"`
}

// FXClient fetches a single currency conversion rate per call.
// There is deliberately no retry here: a failed fetch fails the whole
// refresh cycle and the next timer tick tries again.
type FXClient struct {
	apiURL     string
	base       string
	target     string
	httpClient *http.Client
}

// NewFXClient creates a client for the configured FX endpoint
func NewFXClient(apiURL, base, target string) *FXClient {
	return &FXClient{
		apiURL: apiURL,
		base:   base,
		target: target,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchRate fetches the current conversion rate.
// A missing or non-numeric rate field is a hard failure.
func (c *FXClient) FetchRate(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("amount", "1")
	q.Set("from", c.base)
	q.Set("to", c.target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, domain.NewUpstreamError("fx", "request", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, domain.NewUpstreamError("fx", "get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, domain.NewUpstreamStatusError("fx", "get", resp.StatusCode,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, domain.NewUpstreamError("fx", "read", err)
	}

	var data fxResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return decimal.Zero, domain.NewUpstreamError("fx", "decode", err)
	}

	rate, ok := data.Rates[c.target]
	if !ok || rate <= 0 {
		return decimal.Zero, domain.NewUpstreamError("fx", "decode", domain.ErrRateMissing)
	}

	return decimal.NewFromFloat(rate), nil
}
