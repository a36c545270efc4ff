package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftcheck/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleListings() []model.Listing {
	return []model.Listing{
		{PricePerUnit: 1000, HQ: true, OnMannequin: ptr(false), WorldName: "Anima"},
		{PricePerUnit: 950, HQ: true, OnMannequin: ptr(false), WorldName: "Ixion"},
		{PricePerUnit: 1200, HQ: true, OnMannequin: ptr(false), WorldName: "Anima"},
		{PricePerUnit: 800, HQ: false, OnMannequin: ptr(false), WorldName: "Titan"},
		{PricePerUnit: 750, HQ: false, OnMannequin: ptr(false), WorldName: "Titan"},
		{PricePerUnit: 2000, HQ: true, OnMannequin: ptr(true), WorldName: "Hades"},
		{PricePerUnit: 100, HQ: false, OnMannequin: ptr(false), WorldName: "Pandaemonium"},
	}
}

func TestFilterListings(t *testing.T) {
	listings := sampleListings()
	listings = append(listings, model.Listing{PricePerUnit: 10, HQ: false})

	valid := FilterListings(listings)

	var displayed []model.Listing
	for _, l := range listings {
		if l.OnMannequin != nil && *l.OnMannequin {
			displayed = append(displayed, l)
		}
	}
	assert.Len(t, valid, 7, "absent flag counts as purchasable")
	assert.Len(t, displayed, 1)
	assert.Equal(t, len(listings), len(valid)+len(displayed))
	for _, l := range valid {
		assert.NotEqual(t, int64(2000), l.PricePerUnit)
	}

	assert.Empty(t, FilterListings(nil))
}

func TestSplitByQuality(t *testing.T) {
	valid := FilterListings(sampleListings())
	nq, hq := SplitByQuality(valid)

	for _, l := range nq {
		assert.False(t, l.HQ)
	}
	for _, l := range hq {
		assert.True(t, l.HQ)
	}
	assert.Len(t, nq, 3)
	assert.Len(t, hq, 3)
	assert.Equal(t, len(valid), len(nq)+len(hq))
}

func TestCalculateStats(t *testing.T) {
	nq, hq := SplitByQuality(FilterListings(sampleListings()))
	velocity := model.Velocity{NQ: ptr(12.5), HQ: ptr(3.0)}

	stats, err := CalculateStats(nq, hq, velocity)
	require.NoError(t, err)
	require.NotNil(t, stats.HQ)
	require.NotNil(t, stats.NQ)

	assert.Equal(t, int64(950), stats.HQ.MinPrice)
	assert.Equal(t, 1000.0, stats.HQ.MedianPrice)
	assert.Equal(t, 3, stats.HQ.Listings)
	assert.Equal(t, "Ixion", stats.HQ.World)
	assert.Equal(t, 3.0, *stats.HQ.Velocity)

	// 100 is a valid listing; only mannequins are filtered.
	assert.Equal(t, int64(100), stats.NQ.MinPrice)
	assert.Equal(t, 750.0, stats.NQ.MedianPrice)
	assert.Equal(t, 3, stats.NQ.Listings)
	assert.Equal(t, "Pandaemonium", stats.NQ.World)
	assert.Equal(t, 12.5, *stats.NQ.Velocity)
}

func TestCalculateStats_MissingTier(t *testing.T) {
	nq := []model.Listing{{PricePerUnit: 300}, {PricePerUnit: 100}}

	stats, err := CalculateStats(nq, nil, model.Velocity{})
	require.NoError(t, err)
	assert.Nil(t, stats.HQ)
	require.NotNil(t, stats.NQ)
	assert.Equal(t, 200.0, stats.NQ.MedianPrice)
	assert.Nil(t, stats.MinPrice(model.HQ))
}

func TestCalculateStats_KeepsVelocityOfEmptyTier(t *testing.T) {
	hq := []model.Listing{{PricePerUnit: 900, HQ: true}}
	velocity := model.Velocity{NQ: ptr(50.0), HQ: ptr(10.0)}

	stats, err := CalculateStats(nil, hq, velocity)
	require.NoError(t, err)
	assert.Nil(t, stats.NQ)
	require.NotNil(t, stats.Velocity.NQ)
	assert.Equal(t, 50.0, *stats.Velocity.NQ)
	assert.Equal(t, 10.0, *stats.HQ.Velocity)
}

func TestCalculateStats_NoData(t *testing.T) {
	_, err := CalculateStats(nil, nil, model.Velocity{})
	assert.ErrorIs(t, err, ErrNoMarketData)
}

func TestBuildItemMarket(t *testing.T) {
	onlyDisplayed := []model.Listing{{PricePerUnit: 500, OnMannequin: ptr(true)}}

	m, err := BuildItemMarket(42, onlyDisplayed, model.Velocity{})
	assert.ErrorIs(t, err, ErrNoMarketData)
	assert.Equal(t, 42, m.ItemID)
	assert.False(t, m.HasData())

	m, err = BuildItemMarket(7, sampleListings(), model.Velocity{})
	require.NoError(t, err)
	assert.Equal(t, 7, m.ItemID)
	assert.True(t, m.HasData())
}

func TestMedianNeverBelowMin(t *testing.T) {
	cases := [][]int64{
		{5},
		{1, 2},
		{9, 1, 1, 1},
		{100, 3, 7, 7, 250, 1},
		{42, 42, 42},
	}
	for _, prices := range cases {
		listings := make([]model.Listing, len(prices))
		for i, p := range prices {
			listings[i] = model.Listing{PricePerUnit: p}
		}
		stats, err := CalculateStats(listings, nil, model.Velocity{})
		require.NoError(t, err)
		assert.LessOrEqual(t, float64(stats.NQ.MinPrice), stats.NQ.MedianPrice, "prices %v", prices)
	}
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 3.0, Median([]int64{5, 1, 3}))
	assert.Equal(t, 2.5, Median([]int64{4, 1, 3, 2}))

	in := []int64{3, 1, 2}
	Median(in)
	assert.Equal(t, []int64{3, 1, 2}, in, "input must not be reordered")
}
