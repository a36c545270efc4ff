package pricing

import (
	"errors"
	"fmt"
	"log/slog"

	"craftcheck/internal/model"
)

// ErrCannotEvaluate is returned when a recipe cannot be priced as a whole.
var ErrCannotEvaluate = errors.New("cannot evaluate recipe")

// EvaluationInput is everything needed to price one recipe. Callers supply
// a complete input on every call; the engine keeps no state between calls.
type EvaluationInput struct {
	Recipe model.Recipe
	// BuyMarkets are the market records where ingredients and the result
	// are bought, keyed by item id. A missing item has no market data.
	BuyMarkets map[int]model.ItemMarket
	// SellMarkets are the records where the result is sold. Nil reuses BuyMarkets.
	SellMarkets map[int]model.ItemMarket
	// Splits override the default split per ingredient item id.
	Splits     map[int]model.Split
	Thresholds Thresholds
}

// IngredientCost is the priced breakdown of one ingredient.
type IngredientCost struct {
	Line          model.RecipeLine `json:"line"`
	Market        model.ItemMarket `json:"market"`
	Cheapest      model.Source     `json:"cheapest_source"`
	CheapestPrice int64            `json:"cheapest_price"`
	Split         model.Split      `json:"split"`
	Cost          int64            `json:"cost"`
}

// ResultPricing carries the result line with its buy and sell market records.
type ResultPricing struct {
	Line model.RecipeLine `json:"line"`
	Buy  model.ItemMarket `json:"buy"`
	Sell model.ItemMarket `json:"sell"`
}

// ProfitLoss compares the craft cost against one reference price. Nil
// fields mean not applicable.
type ProfitLoss struct {
	Reference *int64   `json:"reference_price"`
	Amount    *int64   `json:"amount"`
	Percent   *float64 `json:"percent"`
	Margin    Margin   `json:"margin"`
}

// Framing holds the profit/loss against the NQ and HQ reference prices.
type Framing struct {
	NQ ProfitLoss `json:"nq"`
	HQ ProfitLoss `json:"hq"`
}

// Evaluation is the outcome of pricing a recipe.
type Evaluation struct {
	RecipeID    int              `json:"recipe_id"`
	Result      ResultPricing    `json:"result"`
	Ingredients []IngredientCost `json:"ingredients"`
	TotalCost   int64            `json:"total_cost"`
	UnitCost    int64            `json:"unit_cost"`
	// Sell compares crafting against selling the result.
	Sell Framing `json:"sell"`
	// Buy compares crafting against buying the result outright.
	Buy       Framing   `json:"buy"`
	Velocity  *float64  `json:"velocity"`
	Liquidity Liquidity `json:"liquidity"`
}

// Engine prices recipes from market records.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a new Engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Evaluate computes the craft cost and profit/loss of in.Recipe.
func (e *Engine) Evaluate(in EvaluationInput) (*Evaluation, error) {
	result := in.Recipe.Result
	buy := in.BuyMarkets[result.ItemID]
	if !buy.HasData() {
		return nil, fmt.Errorf("%w: no market data for result item %d", ErrCannotEvaluate, result.ItemID)
	}
	sellMarkets := in.SellMarkets
	if sellMarkets == nil {
		sellMarkets = in.BuyMarkets
	}
	sell := sellMarkets[result.ItemID]

	ev := &Evaluation{
		RecipeID: in.Recipe.ID,
		Result:   ResultPricing{Line: result, Buy: buy, Sell: sell},
	}

	for _, ing := range in.Recipe.Ingredients {
		cost, err := priceIngredient(ing, in.BuyMarkets[ing.ItemID], in.Splits)
		if err != nil {
			return nil, fmt.Errorf("%w: ingredient %d: %w", ErrCannotEvaluate, ing.ItemID, err)
		}
		ev.Ingredients = append(ev.Ingredients, cost)
		ev.TotalCost += cost.Cost
	}

	qty := result.Amount
	if qty < 1 {
		qty = 1
	}
	ev.UnitCost = ev.TotalCost / int64(qty)

	for _, f := range []struct {
		framing *Framing
		market  model.ItemMarket
	}{
		{&ev.Sell, sell},
		{&ev.Buy, buy},
	} {
		f.framing.NQ = profitLoss(f.market.MinPrice(model.NQ), qty, ev.TotalCost, ev.UnitCost, in.Thresholds)
		f.framing.HQ = profitLoss(f.market.MinPrice(model.HQ), qty, ev.TotalCost, ev.UnitCost, in.Thresholds)
	}

	ev.Velocity = combinedVelocity(buy)
	ev.Liquidity = ClassifyLiquidity(ev.Velocity, in.Thresholds)

	e.logger.Debug("Recipe evaluated",
		"recipeID", ev.RecipeID,
		"totalCost", ev.TotalCost,
		"unitCost", ev.UnitCost,
		"liquidity", ev.Liquidity,
	)
	if ev.Sell.HQ.Amount != nil && *ev.Sell.HQ.Amount > 0 {
		e.logger.Info("Profitable craft found",
			"recipeID", ev.RecipeID,
			"sellPrice", *ev.Sell.HQ.Reference,
			"unitCost", ev.UnitCost,
			"profit", *ev.Sell.HQ.Amount,
		)
	}

	return ev, nil
}

func priceIngredient(line model.RecipeLine, m model.ItemMarket, splits map[int]model.Split) (IngredientCost, error) {
	candidates := CandidatesFor(line, m)
	source, price, err := ResolveCheapest(candidates)
	if err != nil {
		return IngredientCost{}, err
	}

	split, ok := splits[line.ItemID]
	if !ok {
		split = DefaultSplit(source, line.Amount)
	}

	return IngredientCost{
		Line:          line,
		Market:        m,
		Cheapest:      source,
		CheapestPrice: price,
		Split:         split,
		Cost:          SplitCost(split, candidates),
	}, nil
}

// SplitCost sums quantity times unit price over the sources. A source with
// no price contributes nothing, whatever quantity is assigned to it.
func SplitCost(split model.Split, c Candidates) int64 {
	var total int64
	add := func(qty int, price *int64) {
		if price != nil {
			total += int64(qty) * *price
		}
	}
	add(split.FixedPrice, c.FixedPrice)
	add(split.NQMarket, c.NQPrice)
	add(split.HQMarket, c.HQPrice)
	return total
}

// profitLoss compares the craft cost against a per-unit reference price.
// A single-unit craft is measured against the reference price; a batch is
// measured against the total craft cost.
func profitLoss(reference *int64, qty int, total, unit int64, th Thresholds) ProfitLoss {
	pl := ProfitLoss{Reference: reference}
	if reference == nil {
		pl.Margin = MarginNotApplicable
		return pl
	}

	var amount, denominator int64
	if qty == 1 {
		amount = *reference - unit
		denominator = *reference
	} else {
		amount = *reference*int64(qty) - total
		denominator = total
	}
	pl.Amount = &amount
	if denominator != 0 {
		percent := float64(amount) / float64(denominator)
		pl.Percent = &percent
	}
	pl.Margin = ClassifyMargin(pl.Percent, th)
	return pl
}

// combinedVelocity sums the NQ and HQ sale velocity of m. It is nil only
// when neither figure is known.
func combinedVelocity(m model.ItemMarket) *float64 {
	var (
		sum   float64
		known bool
	)
	for _, v := range []*float64{m.Velocity.NQ, m.Velocity.HQ} {
		if v != nil {
			sum += *v
			known = true
		}
	}
	if !known {
		return nil
	}
	return &sum
}
