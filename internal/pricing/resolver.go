package pricing

import (
	"errors"

	"craftcheck/internal/model"
)

// ErrNoViableSource is returned when every acquisition source is unavailable.
var ErrNoViableSource = errors.New("no viable source")

// Candidates holds the per-unit price of each acquisition source.
// A nil price means the source is unavailable, not free.
type Candidates struct {
	FixedPrice *int64
	NQPrice    *int64
	HQPrice    *int64
}

// CandidatesFor collects the candidate prices of a recipe line from its
// fixed price and market record.
func CandidatesFor(line model.RecipeLine, m model.ItemMarket) Candidates {
	return Candidates{
		FixedPrice: line.FixedPrice,
		NQPrice:    m.MinPrice(model.NQ),
		HQPrice:    m.MinPrice(model.HQ),
	}
}

// Price returns the candidate price of source s.
func (c Candidates) Price(s model.Source) *int64 {
	switch s {
	case model.SourceFixedPrice:
		return c.FixedPrice
	case model.SourceNQMarket:
		return c.NQPrice
	case model.SourceHQMarket:
		return c.HQPrice
	}
	return nil
}

// tieBreakOrder is the preference applied when prices are equal.
var tieBreakOrder = []model.Source{
	model.SourceHQMarket,
	model.SourceFixedPrice,
	model.SourceNQMarket,
}

// ResolveCheapest selects the source with the strictly lowest price. Equal
// prices are resolved HQ market first, then fixed price, then NQ market.
func ResolveCheapest(c Candidates) (model.Source, int64, error) {
	var (
		best      model.Source
		bestPrice int64
		found     bool
	)
	for _, s := range tieBreakOrder {
		p := c.Price(s)
		if p == nil {
			continue
		}
		if !found || *p < bestPrice {
			best, bestPrice, found = s, *p, true
		}
	}
	if !found {
		return "", 0, ErrNoViableSource
	}
	return best, bestPrice, nil
}

// DefaultSplit assigns the whole required amount to source s.
func DefaultSplit(s model.Source, amount int) model.Split {
	var split model.Split
	switch s {
	case model.SourceFixedPrice:
		split.FixedPrice = amount
	case model.SourceNQMarket:
		split.NQMarket = amount
	case model.SourceHQMarket:
		split.HQMarket = amount
	}
	return split
}
