package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ListingSource fetches the primary marketplace dataset
type ListingSource interface {
	FetchListings(ctx context.Context) ([]RawListing, error)
}

// DetailSource fetches the secondary item-detail dataset keyed by item id
type DetailSource interface {
	FetchDetails(ctx context.Context) (map[int64]ItemDetail, error)
}

// RateSource fetches the USD to local-currency conversion rate
type RateSource interface {
	FetchRate(ctx context.Context) (decimal.Decimal, error)
}

// ItemRepository defines how persisted item metadata is accessed
type ItemRepository interface {
	UpsertItem(item *ItemInfo) error
	GetItem(id int64) (*ItemInfo, error)
	ToggleFavorite(id int64) (bool, error)
	FavoriteIDs() (map[int64]bool, error)
}
