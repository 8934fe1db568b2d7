package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RawListing is one marketplace listing exactly as the primary source
// reports it. Price stays a string here; parsing happens in the pipeline.
type RawListing struct {
	ID       int64  `json:"limited_id"`
	Name     string `json:"limited_name"`
	RAP      int64  `json:"rap"`
	PriceRaw string `json:"price"`
}

// ItemDetail is the per-item metadata from the secondary source
type ItemDetail struct {
	Name      string `json:"name"`
	RAP       int64  `json:"rap"`
	Projected bool   `json:"projected"` // RAP considered artificially inflated
}

// EnrichedItem is one fully derived dashboard record: a single listing per
// item id, with currency conversion and value metrics attached
type EnrichedItem struct {
	ID          int64           `json:"limited_id"`
	Name        string          `json:"name"`
	RAP         int64           `json:"rap"`
	USDPrice    decimal.Decimal `json:"usd_price"`
	Projected   bool            `json:"projected"`
	SGDEstimate int64           `json:"sgd_estimate"`
	SGDMin      int64           `json:"sgd_min"`
	SGDMax      int64           `json:"sgd_max"`
	RateMin     decimal.Decimal `json:"rate_min"`
	RateMax     decimal.Decimal `json:"rate_max"`
	IsFavorite  bool            `json:"is_favorite"`
}

var (
	goodRateCeiling = decimal.NewFromInt(2)
	fairRateCeiling = decimal.NewFromInt(3)
)

// DealTier buckets the low-end rate into a display tier: "good" at or under
// 2 SGD per 1000 RAP, "fair" at or under 3, "high" above that
func (e *EnrichedItem) DealTier() string {
	switch {
	case e.RateMin.LessThanOrEqual(goodRateCeiling):
		return "good"
	case e.RateMin.LessThanOrEqual(fairRateCeiling):
		return "fair"
	default:
		return "high"
	}
}

// FormatRAP renders RAP compactly for display (1.2K, 3.4M)
func (e *EnrichedItem) FormatRAP() string {
	switch {
	case e.RAP >= 1_000_000:
		return trimZero(fmt.Sprintf("%.1f", float64(e.RAP)/1_000_000)) + "M"
	case e.RAP >= 1_000:
		return trimZero(fmt.Sprintf("%.1f", float64(e.RAP)/1_000)) + "K"
	default:
		return fmt.Sprintf("%d", e.RAP)
	}
}

// trimZero drops a trailing ".0" so 1000 renders as 1K, not 1.0K
func trimZero(s string) string {
	if len(s) > 2 && s[len(s)-2:] == ".0" {
		return s[:len(s)-2]
	}
	return s
}
