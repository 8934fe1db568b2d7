package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDealTier(t *testing.T) {
	tests := []struct {
		rateMin string
		want    string
	}{
		{"1.50", "good"},
		{"2.00", "good"},
		{"2.01", "fair"},
		{"3.00", "fair"},
		{"3.01", "high"},
		{"10.00", "high"},
	}

	for _, tt := range tests {
		e := EnrichedItem{RateMin: decimal.RequireFromString(tt.rateMin)}
		if got := e.DealTier(); got != tt.want {
			t.Errorf("DealTier(%s) = %q, want %q", tt.rateMin, got, tt.want)
		}
	}
}

func TestFormatRAP(t *testing.T) {
	tests := []struct {
		rap  int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1K"},
		{1260, "1.3K"},
		{505000, "505K"},
		{1_000_000, "1M"},
		{1_450_000, "1.5M"},
	}

	for _, tt := range tests {
		e := EnrichedItem{RAP: tt.rap}
		if got := e.FormatRAP(); got != tt.want {
			t.Errorf("FormatRAP(%d) = %q, want %q", tt.rap, got, tt.want)
		}
	}
}
