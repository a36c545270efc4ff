package universalis

import (
	"context"
	"errors"

	"craftcheck/internal/model"
)

// ErrServiceUnavailable is returned when the price service cannot be reached
// or answers with a non-2xx status.
var ErrServiceUnavailable = errors.New("price service unavailable")

// PriceClient defines the standard interface for all price sources.
type PriceClient interface {
	GetName() string
	FetchMarket(ctx context.Context, region string, itemIDs []int) (*MarketData, error)
}

// ItemListings holds the raw listings and sale velocity of one item.
type ItemListings struct {
	Listings []model.Listing
	Velocity model.Velocity
}

// MarketData is the merged NQ and HQ payload for one region. Items absent
// from the response are absent from Items.
type MarketData struct {
	Region string
	Items  map[int]ItemListings
}
