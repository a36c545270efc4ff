package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"craftcheck/internal/database"
	"craftcheck/internal/market"
	"craftcheck/internal/metrics"
	"craftcheck/internal/model"
	"craftcheck/internal/pricing"
	"craftcheck/internal/universalis"
)

// Request describes one recipe evaluation.
type Request struct {
	RecipeID int
	// Region is where ingredients are bought. Empty uses the default region.
	Region string
	// SellRegion is where the result is sold. Empty reuses Region.
	SellRegion string
	// BuyOnSellWorld buys ingredients on SellRegion instead of Region.
	BuyOnSellWorld bool
	// Splits override the default split per ingredient item id.
	Splits map[int]model.Split
}

// Report is an evaluation together with the regions it was priced in.
type Report struct {
	*pricing.Evaluation
	BuyRegion  string `json:"buy_region"`
	SellRegion string `json:"sell_region"`
	IconURL    string `json:"icon_url"`
}

// Service loads recipes, fetches their market data and prices them.
type Service struct {
	logger        *slog.Logger
	repo          database.Repository
	prices        universalis.PriceClient
	engine        *pricing.Engine
	thresholds    pricing.Thresholds
	defaultRegion string
}

// NewService creates a new Service.
func NewService(logger *slog.Logger, repo database.Repository, prices universalis.PriceClient, engine *pricing.Engine, thresholds pricing.Thresholds, defaultRegion string) *Service {
	return &Service{
		logger:        logger,
		repo:          repo,
		prices:        prices,
		engine:        engine,
		thresholds:    thresholds,
		defaultRegion: defaultRegion,
	}
}

// RecipesForItem lists the recipes producing itemID.
func (s *Service) RecipesForItem(ctx context.Context, itemID int) ([]model.RecipeSummary, error) {
	return s.repo.FindRecipesByItem(ctx, itemID)
}

// Recipes lists every stored recipe.
func (s *Service) Recipes(ctx context.Context) ([]model.RecipeSummary, error) {
	return s.repo.ListRecipes(ctx)
}

// Evaluate prices req.RecipeID against live market data.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Report, error) {
	report, err := s.evaluate(ctx, req)
	metrics.Evaluations.WithLabelValues(outcome(err)).Inc()
	return report, err
}

func (s *Service) evaluate(ctx context.Context, req Request) (*Report, error) {
	recipe, err := s.repo.GetRecipe(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}

	buyRegion, sellRegion := s.regions(req)

	buyData, err := s.prices.FetchMarket(ctx, buyRegion, recipe.ItemIDs())
	if err != nil {
		return nil, fmt.Errorf("fetch %s prices: %w", buyRegion, err)
	}
	buyMarkets := s.buildMarkets(buyData, recipe.ItemIDs())

	var sellMarkets map[int]model.ItemMarket
	if !strings.EqualFold(sellRegion, buyRegion) {
		resultID := []int{recipe.Result.ItemID}
		sellData, err := s.prices.FetchMarket(ctx, sellRegion, resultID)
		if err != nil {
			return nil, fmt.Errorf("fetch %s prices: %w", sellRegion, err)
		}
		sellMarkets = s.buildMarkets(sellData, resultID)
	}

	ev, err := s.engine.Evaluate(pricing.EvaluationInput{
		Recipe:      recipe,
		BuyMarkets:  buyMarkets,
		SellMarkets: sellMarkets,
		Splits:      req.Splits,
		Thresholds:  s.thresholds,
	})
	if err != nil {
		return nil, err
	}

	return &Report{
		Evaluation: ev,
		BuyRegion:  buyRegion,
		SellRegion: sellRegion,
		IconURL:    recipe.Result.IconURL(),
	}, nil
}

func (s *Service) regions(req Request) (buy, sell string) {
	buy = req.Region
	if buy == "" {
		buy = s.defaultRegion
	}
	sell = req.SellRegion
	if sell == "" {
		sell = buy
	}
	if req.BuyOnSellWorld {
		buy = sell
	}
	return buy, sell
}

// buildMarkets turns raw listings into per-item records. Items without any
// valid listing are left out.
func (s *Service) buildMarkets(data *universalis.MarketData, itemIDs []int) map[int]model.ItemMarket {
	markets := make(map[int]model.ItemMarket, len(itemIDs))
	for _, id := range itemIDs {
		if _, done := markets[id]; done {
			continue
		}
		raw, ok := data.Items[id]
		if !ok {
			s.logger.Debug("No market data for item", "itemID", id, "region", data.Region)
			continue
		}
		m, err := market.BuildItemMarket(id, raw.Listings, raw.Velocity)
		if err != nil {
			s.logger.Debug("No valid listings for item", "itemID", id, "region", data.Region, "error", err)
			continue
		}
		markets[id] = m
	}
	return markets
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, database.ErrRecipeNotFound):
		return metrics.OutcomeUnknownRecipe
	case errors.Is(err, universalis.ErrServiceUnavailable):
		return metrics.OutcomeUnavailable
	case errors.Is(err, pricing.ErrCannotEvaluate):
		return metrics.OutcomeCannotEvaluate
	default:
		return metrics.OutcomeError
	}
}
