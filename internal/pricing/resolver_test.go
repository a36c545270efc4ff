package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"craftcheck/internal/model"
)

func price(v int64) *int64 { return &v }

func TestResolveCheapest(t *testing.T) {
	tests := []struct {
		name       string
		candidates Candidates
		wantSource model.Source
		wantPrice  int64
	}{
		{
			name:       "fixed price lowest",
			candidates: Candidates{FixedPrice: price(100), NQPrice: price(120), HQPrice: price(300)},
			wantSource: model.SourceFixedPrice,
			wantPrice:  100,
		},
		{
			name:       "nq lowest",
			candidates: Candidates{FixedPrice: price(100), NQPrice: price(80), HQPrice: price(300)},
			wantSource: model.SourceNQMarket,
			wantPrice:  80,
		},
		{
			name:       "only hq available",
			candidates: Candidates{HQPrice: price(700)},
			wantSource: model.SourceHQMarket,
			wantPrice:  700,
		},
		{
			name:       "three-way tie prefers hq",
			candidates: Candidates{FixedPrice: price(500), NQPrice: price(500), HQPrice: price(500)},
			wantSource: model.SourceHQMarket,
			wantPrice:  500,
		},
		{
			name:       "fixed ties nq prefers fixed",
			candidates: Candidates{FixedPrice: price(500), NQPrice: price(500), HQPrice: price(900)},
			wantSource: model.SourceFixedPrice,
			wantPrice:  500,
		},
		{
			name:       "hq ties nq prefers hq",
			candidates: Candidates{NQPrice: price(40), HQPrice: price(40)},
			wantSource: model.SourceHQMarket,
			wantPrice:  40,
		},
		{
			name:       "hq ties fixed prefers hq",
			candidates: Candidates{FixedPrice: price(40), NQPrice: price(41), HQPrice: price(40)},
			wantSource: model.SourceHQMarket,
			wantPrice:  40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, p, err := ResolveCheapest(tt.candidates)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSource, source)
			assert.Equal(t, tt.wantPrice, p)
		})
	}
}

func TestResolveCheapest_ReturnsMinimum(t *testing.T) {
	values := []*int64{nil, price(1), price(50), price(50), price(999)}
	for _, f := range values {
		for _, nq := range values {
			for _, hq := range values {
				c := Candidates{FixedPrice: f, NQPrice: nq, HQPrice: hq}
				source, p, err := ResolveCheapest(c)
				if f == nil && nq == nil && hq == nil {
					assert.ErrorIs(t, err, ErrNoViableSource)
					continue
				}
				require.NoError(t, err)

				min := int64(-1)
				for _, v := range []*int64{f, nq, hq} {
					if v != nil && (min < 0 || *v < min) {
						min = *v
					}
				}
				assert.Equal(t, min, p)
				assert.Equal(t, p, *c.Price(source))
			}
		}
	}
}

func TestResolveCheapest_NoSource(t *testing.T) {
	source, p, err := ResolveCheapest(Candidates{})
	assert.ErrorIs(t, err, ErrNoViableSource)
	assert.Empty(t, source)
	assert.Zero(t, p)
}

func TestDefaultSplit(t *testing.T) {
	assert.Equal(t, model.Split{FixedPrice: 3}, DefaultSplit(model.SourceFixedPrice, 3))
	assert.Equal(t, model.Split{NQMarket: 3}, DefaultSplit(model.SourceNQMarket, 3))
	assert.Equal(t, model.Split{HQMarket: 3}, DefaultSplit(model.SourceHQMarket, 3))
}

func TestClassify(t *testing.T) {
	th := Thresholds{SlowVelocity: 15, FastVelocity: 99, LowMargin: 0.25}
	v := func(f float64) *float64 { return &f }

	assert.Equal(t, LiquidityUnknown, ClassifyLiquidity(nil, th))
	assert.Equal(t, LiquidityWontSell, ClassifyLiquidity(v(14.9), th))
	assert.Equal(t, LiquiditySlow, ClassifyLiquidity(v(15), th))
	assert.Equal(t, LiquiditySells, ClassifyLiquidity(v(99), th))

	assert.Equal(t, MarginNotApplicable, ClassifyMargin(nil, th))
	assert.Equal(t, MarginLoss, ClassifyMargin(v(-0.01), th))
	assert.Equal(t, MarginLow, ClassifyMargin(v(0), th))
	assert.Equal(t, MarginHealthy, ClassifyMargin(v(0.25), th))
}
