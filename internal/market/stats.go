package market

import (
	"errors"
	"slices"

	"craftcheck/internal/model"
)

// ErrNoMarketData is returned when an item has no valid listings in either tier.
var ErrNoMarketData = errors.New("no market data available")

// CalculateStats reduces the NQ and HQ listing groups to summary stats.
// An empty group yields a nil tier; two empty groups yield ErrNoMarketData.
func CalculateStats(nq, hq []model.Listing, velocity model.Velocity) (model.ItemMarket, error) {
	var m model.ItemMarket
	if len(nq) == 0 && len(hq) == 0 {
		return m, ErrNoMarketData
	}
	m.NQ = tierStats(nq, velocity.NQ)
	m.HQ = tierStats(hq, velocity.HQ)
	m.Velocity = velocity
	return m, nil
}

// BuildItemMarket runs the full filter, split and stats pipeline for the
// raw listings of one item.
func BuildItemMarket(itemID int, listings []model.Listing, velocity model.Velocity) (model.ItemMarket, error) {
	nq, hq := SplitByQuality(FilterListings(listings))
	m, err := CalculateStats(nq, hq, velocity)
	m.ItemID = itemID
	return m, err
}

func tierStats(listings []model.Listing, velocity *float64) *model.TierStats {
	if len(listings) == 0 {
		return nil
	}

	prices := make([]int64, len(listings))
	cheapest := listings[0]
	for i, l := range listings {
		prices[i] = l.PricePerUnit
		if l.PricePerUnit < cheapest.PricePerUnit {
			cheapest = l
		}
	}

	return &model.TierStats{
		MinPrice:    cheapest.PricePerUnit,
		MedianPrice: Median(prices),
		Velocity:    velocity,
		World:       cheapest.WorldName,
		Listings:    len(listings),
	}
}

// Median returns the median of prices, averaging the two middle values
// for even-sized input. It returns 0 for empty input.
func Median(prices []int64) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(prices)
	slices.Sort(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}
