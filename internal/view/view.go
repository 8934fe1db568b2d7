package view

import (
	"sort"
	"strings"

	"uqe_market/internal/domain"
)

// SortKey selects the ordering applied after filtering
type SortKey string

const (
	// SortNone keeps filter order
	SortNone SortKey = "none"
	// SortRAP orders ascending by RAP (lowest first)
	SortRAP SortKey = "rap"
	// SortRate orders ascending by the low-end rate (best deal first)
	SortRate SortKey = "rate"
)

// ParseSortKey maps a query-string value to a SortKey.
// "value" is a legacy alias of "rap"; anything unknown falls back to none.
func ParseSortKey(s string) SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rap", "value":
		return SortRAP
	case "rate":
		return SortRate
	default:
		return SortNone
	}
}

// Params holds the filter/sort/search state of one dashboard query
type Params struct {
	MinRAP int64   `json:"min_rap"`
	MaxRAP int64   `json:"max_rap"`
	Search string  `json:"search"`
	Sort   SortKey `json:"sort"`
}

// Derive computes the displayed subset of the enriched list. Pure: the input
// slice is never mutated and a fresh slice is always returned.
//
// A record passes the filter when its RAP lies within [MinRAP, MaxRAP]
// inclusive, its USD price is positive, and its name contains the search
// term case-insensitively (an empty term matches everything).
func Derive(items []domain.EnrichedItem, p Params) []domain.EnrichedItem {
	q := strings.ToLower(strings.TrimSpace(p.Search))

	out := make([]domain.EnrichedItem, 0, len(items))
	for _, it := range items {
		if it.RAP < p.MinRAP || it.RAP > p.MaxRAP {
			continue
		}
		if !it.USDPrice.IsPositive() {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(it.Name), q) {
			continue
		}
		out = append(out, it)
	}

	switch p.Sort {
	case SortRAP:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RAP < out[j].RAP
		})
	case SortRate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RateMin.LessThan(out[j].RateMin)
		})
	}
	return out
}
