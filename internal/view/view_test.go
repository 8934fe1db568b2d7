package view

import (
	"testing"

	"uqe_market/internal/domain"

	"github.com/shopspring/decimal"
)

func item(id int64, name string, rap int64, usd float64, rateMin float64) domain.EnrichedItem {
	return domain.EnrichedItem{
		ID:       id,
		Name:     name,
		RAP:      rap,
		USDPrice: decimal.NewFromFloat(usd),
		RateMin:  decimal.NewFromFloat(rateMin),
	}
}

func TestDerive_RAPRangeInclusive(t *testing.T) {
	items := []domain.EnrichedItem{
		item(1, "Low", 500, 10, 1),
		item(2, "Mid", 5000, 10, 1),
		item(3, "High", 20000, 10, 1),
	}

	out := Derive(items, Params{MinRAP: 1000, MaxRAP: 10000, Sort: SortNone})
	if len(out) != 1 || out[0].RAP != 5000 {
		t.Fatalf("expected only RAP=5000 to pass, got %+v", out)
	}

	// Bounds are inclusive
	out = Derive(items, Params{MinRAP: 500, MaxRAP: 20000, Sort: SortNone})
	if len(out) != 3 {
		t.Errorf("expected inclusive bounds to keep all 3, got %d", len(out))
	}
}

func TestDerive_ZeroPriceExcluded(t *testing.T) {
	items := []domain.EnrichedItem{
		item(1, "Free", 5000, 0, 1),
		item(2, "Paid", 5000, 10, 1),
	}

	out := Derive(items, Params{MinRAP: 0, MaxRAP: 100000, Sort: SortNone})
	if len(out) != 1 || out[0].ID != 2 {
		t.Fatalf("zero-price record must be excluded regardless of RAP, got %+v", out)
	}
}

func TestDerive_SearchCaseInsensitive(t *testing.T) {
	items := []domain.EnrichedItem{
		item(1, "Domino Crown", 1000, 10, 1),
		item(2, "Sparkle Time Fedora", 1000, 10, 1),
	}

	out := Derive(items, Params{MaxRAP: 100000, Search: "crown", Sort: SortNone})
	if len(out) != 1 || out[0].ID != 1 {
		t.Fatalf("expected case-insensitive substring match, got %+v", out)
	}

	out = Derive(items, Params{MaxRAP: 100000, Search: "  ", Sort: SortNone})
	if len(out) != 2 {
		t.Errorf("blank search term should match all, got %d", len(out))
	}
}

func TestDerive_SortByRAP(t *testing.T) {
	items := []domain.EnrichedItem{
		item(1, "A", 300, 10, 1),
		item(2, "B", 100, 10, 1),
		item(3, "C", 200, 10, 1),
	}

	out := Derive(items, Params{MaxRAP: 100000, Sort: SortRAP})
	if len(out) != 3 {
		t.Fatalf("expected 3 records, got %d", len(out))
	}
	if out[0].RAP != 100 || out[1].RAP != 200 || out[2].RAP != 300 {
		t.Errorf("expected RAP order [100 200 300], got [%d %d %d]", out[0].RAP, out[1].RAP, out[2].RAP)
	}
}

func TestDerive_SortByRate(t *testing.T) {
	items := []domain.EnrichedItem{
		item(1, "A", 1000, 10, 3.5),
		item(2, "B", 1000, 10, 1.2),
		item(3, "C", 1000, 10, 2.4),
	}

	out := Derive(items, Params{MaxRAP: 100000, Sort: SortRate})
	if out[0].ID != 2 || out[1].ID != 3 || out[2].ID != 1 {
		t.Errorf("expected rate order [2 3 1], got [%d %d %d]", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestDerive_NonePreservesOrder(t *testing.T) {
	items := []domain.EnrichedItem{
		item(3, "C", 300, 10, 1),
		item(1, "A", 100, 10, 1),
		item(2, "B", 200, 10, 1),
	}

	out := Derive(items, Params{MaxRAP: 100000, Sort: SortNone})
	if out[0].ID != 3 || out[1].ID != 1 || out[2].ID != 2 {
		t.Errorf("SortNone must preserve input order, got [%d %d %d]", out[0].ID, out[1].ID, out[2].ID)
	}
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	items := []domain.EnrichedItem{
		item(2, "B", 200, 10, 1),
		item(1, "A", 100, 10, 1),
	}

	_ = Derive(items, Params{MaxRAP: 100000, Sort: SortRAP})
	if items[0].ID != 2 {
		t.Error("Derive must not reorder the input slice")
	}
}

func TestParseSortKey(t *testing.T) {
	cases := map[string]SortKey{
		"rap":   SortRAP,
		"RAP":   SortRAP,
		"value": SortRAP, // legacy alias
		"rate":  SortRate,
		"none":  SortNone,
		"":      SortNone,
		"bogus": SortNone,
	}
	for in, want := range cases {
		if got := ParseSortKey(in); got != want {
			t.Errorf("ParseSortKey(%q) = %q, want %q", in, got, want)
		}
	}
}
