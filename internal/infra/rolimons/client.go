package rolimons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"uqe_market/internal/domain"
)

// Positions inside the Rolimons compact array format:
// [name, acronym, rap, value, default_value, demand, trend, projected, hyped, rare]
const (
	posName      = 0
	posRAP       = 2
	posProjected = 7
)

// rolimonsResponse represents the item-details payload. Each entry is a
// fixed-position array with mixed element types, so entries are decoded
// individually from raw JSON.
type rolimonsResponse struct {
	Success   bool                       `json:"success"`
	ItemCount int                        `json:"item_count"`
	Items     map[string]json.RawMessage `json:"items"`
}

// Client fetches the item-details dataset
type Client struct {
	apiURL     string
	userAgent  string
	httpClient *http.Client
}

// New creates an item-details client. The URL may point at the upstream API
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

// FetchDetails fetches item details for every known item, decoding the
// positional arrays into named-field structs at this boundary. Entries that
// are not arrays are dropped, which downstream treats the same as absent
// (not projected).
func (c *Client) FetchDetails(ctx context.Context) (map[int64]domain.ItemDetail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return nil, domain.NewUpstreamError("rolimons", "request", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError("rolimons", "get", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUpstreamStatusError("rolimons", "get", resp.StatusCode,
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError("rolimons", "read", err)
	}

	var data rolimonsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.NewUpstreamError("rolimons", "decode", err)
	}

	details := make(map[int64]domain.ItemDetail, len(data.Items))
	for key, raw := range data.Items {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		var arr []any
		if err := json.Unmarshal(raw, &arr); err != nil {
			// Not a compact array; same as no entry.
			continue
		}
		details[id] = decodeEntry(arr)
	}
	return details, nil
}

// decodeEntry maps one compact array to named fields. The projected sentinel
// is -1 for "not flagged"; any other present, non-null value flags the item.
func decodeEntry(arr []any) domain.ItemDetail {
	d := domain.ItemDetail{}
	if s, ok := elem(arr, posName).(string); ok {
		d.Name = s
	}
	if f, ok := elem(arr, posRAP).(float64); ok {
		d.RAP = int64(f)
	}
	if v := elem(arr, posProjected); v != nil {
		f, isNum := v.(float64)
		d.Projected = !isNum || f != -1
	}
	return d
}

func elem(arr []any, i int) any {
	if i < 0 || i >= len(arr) {
		return nil
	}
	return arr[i]
}
