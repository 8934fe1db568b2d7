package enrich

import (
	"fmt"
	"strings"

	"uqe_market/internal/domain"

	"github.com/shopspring/decimal"
)

// Default multiplier band for the SGD estimate. The band is intentionally
// skewed high: the real sell price sits near the low end, the high end is a
// safety margin.
var (
	// LowMult is the lower bound multiplier for the price band
	LowMult = decimal.NewFromFloat(1.1)
	// PrimaryMult produces the single headline estimate
	PrimaryMult = decimal.NewFromFloat(1.25)
	// HighMult is the upper bound multiplier for the price band
	HighMult = decimal.NewFromFloat(1.7)
)

var oneThousand = decimal.NewFromInt(1000)

// Pipeline merges raw listings, item details and the FX rate into the
// deduplicated, enriched record list the dashboard displays. It holds only
// the multiplier band and is safe for concurrent use.
type Pipeline struct {
	low     decimal.Decimal
	primary decimal.Decimal
	high    decimal.Decimal
}

// New creates a pipeline with the default multiplier band
func New() *Pipeline {
	return &Pipeline{low: LowMult, primary: PrimaryMult, high: HighMult}
}

// NewWithBand creates a pipeline with a custom multiplier band.
// All multipliers must exceed 1 and satisfy low < primary < high.
func NewWithBand(low, primary, high decimal.Decimal) (*Pipeline, error) {
	one := decimal.NewFromInt(1)
	if low.LessThanOrEqual(one) || primary.LessThanOrEqual(one) || high.LessThanOrEqual(one) {
		return nil, fmt.Errorf("multipliers must be greater than 1: %s/%s/%s", low, primary, high)
	}
	if !low.LessThan(primary) || !primary.LessThan(high) {
		return nil, fmt.Errorf("multipliers must be ordered low < primary < high: %s/%s/%s", low, primary, high)
	}
	return &Pipeline{low: low, primary: primary, high: high}, nil
}

// Enrich produces at most one EnrichedItem per listing id. When the input
// carries duplicate listings for an id, the one with the lowest parsed USD
// price wins; on an exact price tie the first-seen listing is kept.
// Derived fields are computed per listing before deduplication, so the kept
// record never mixes values from different raw rows.
func (p *Pipeline) Enrich(listings []domain.RawListing, details map[int64]domain.ItemDetail, fxRate decimal.Decimal) []domain.EnrichedItem {
	best := make(map[int64]domain.EnrichedItem, len(listings))
	order := make([]int64, 0, len(listings))

	for _, raw := range listings {
		item := p.enrichOne(raw, details, fxRate)

		cur, seen := best[item.ID]
		if !seen {
			best[item.ID] = item
			order = append(order, item.ID)
			continue
		}
		// Strictly lower only: ties keep the first-seen listing.
		if item.USDPrice.LessThan(cur.USDPrice) {
			best[item.ID] = item
		}
	}

	out := make([]domain.EnrichedItem, 0, len(best))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// enrichOne computes every derived field for a single raw listing
func (p *Pipeline) enrichOne(raw domain.RawListing, details map[int64]domain.ItemDetail, fxRate decimal.Decimal) domain.EnrichedItem {
	usd := ParsePrice(raw.PriceRaw)

	projected := false
	if d, ok := details[raw.ID]; ok {
		projected = d.Projected
	}

	sgdMin := bandSGD(usd, p.low, fxRate)
	sgdEst := bandSGD(usd, p.primary, fxRate)
	sgdMax := bandSGD(usd, p.high, fxRate)

	rateMin, rateMax := RateRange(raw.RAP, sgdMin, sgdMax)

	return domain.EnrichedItem{
		ID:          raw.ID,
		Name:        raw.Name,
		RAP:         raw.RAP,
		USDPrice:    usd,
		Projected:   projected,
		SGDEstimate: sgdEst,
		SGDMin:      sgdMin,
		SGDMax:      sgdMax,
		RateMin:     rateMin,
		RateMax:     rateMax,
	}
}

// ParsePrice coerces an upstream price string to a decimal. Thousands
// separators are stripped first; anything that still fails to parse is 0.
func ParsePrice(raw string) decimal.Decimal {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// bandSGD converts a USD price to whole SGD units for one band multiplier
func bandSGD(usd, mult, fxRate decimal.Decimal) int64 {
	return usd.Mul(mult).Mul(fxRate).Round(0).IntPart()
}

// RateRange computes the price-per-1000-RAP metric for both band ends,
// rounded to 2 decimal places. A zero RAP is substituted with 1 so the
// denominator never collapses.
func RateRange(rap int64, sgdMin, sgdMax int64) (decimal.Decimal, decimal.Decimal) {
	base := rap
	if base == 0 {
		base = 1
	}
	denom := decimal.NewFromInt(base).Div(oneThousand)
	rateMin := decimal.NewFromInt(sgdMin).Div(denom).Round(2)
	rateMax := decimal.NewFromInt(sgdMax).Div(denom).Round(2)
	return rateMin, rateMax
}
