package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"craftcheck/internal/lookup"
	"craftcheck/internal/model"
)

// Evaluator is the service behind the HTTP handlers.
type Evaluator interface {
	Evaluate(ctx context.Context, req lookup.Request) (*lookup.Report, error)
	RecipesForItem(ctx context.Context, itemID int) ([]model.RecipeSummary, error)
	Recipes(ctx context.Context) ([]model.RecipeSummary, error)
}

// EvaluationRequest is the body of a recipe evaluation with overridden
// splits. Split keys are ingredient item ids.
type EvaluationRequest struct {
	Region         string              `json:"region" validate:"omitempty,max=32,excludesall=/?#%"`
	SellRegion     string              `json:"sell_region" validate:"omitempty,max=32,excludesall=/?#%"`
	BuyOnSellWorld bool                `json:"buy_on_sell_world"`
	Splits         map[int]model.Split `json:"splits" validate:"omitempty,dive"`
}

// RecipesResponse lists recipes, optionally those producing one item.
type RecipesResponse struct {
	ItemID  int                   `json:"item_id,omitempty"`
	Recipes []model.RecipeSummary `json:"recipes"`
}

// Handler serves the recipe and evaluation endpoints.
type Handler struct {
	logger    *slog.Logger
	service   Evaluator
	validator *Validator
}

// NewHandler creates a new Handler.
func NewHandler(logger *slog.Logger, service Evaluator) *Handler {
	return &Handler{logger: logger, service: service, validator: NewValidator()}
}

// HandleHealthz provides a basic liveness check
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleListRecipes lists every stored recipe.
func (h *Handler) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.service.Recipes(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	if recipes == nil {
		recipes = []model.RecipeSummary{}
	}
	respondJSON(w, http.StatusOK, RecipesResponse{Recipes: recipes})
}

// HandleRecipesForItem lists the recipes producing {itemID}.
func (h *Handler) HandleRecipesForItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "itemID")
	if !ok {
		return
	}

	recipes, err := h.service.RecipesForItem(r.Context(), itemID)
	if err != nil {
		h.fail(w, err)
		return
	}
	if recipes == nil {
		recipes = []model.RecipeSummary{}
	}
	respondJSON(w, http.StatusOK, RecipesResponse{ItemID: itemID, Recipes: recipes})
}

// HandleEvaluate prices {recipeID} with default splits. Regions come from
// the query string.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := pathID(w, r, "recipeID")
	if !ok {
		return
	}

	q := r.URL.Query()
	req := EvaluationRequest{
		Region:     q.Get("region"),
		SellRegion: q.Get("sell_region"),
	}
	if v := q.Get("buy_on_sell_world"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  ErrMsgInvalidRequest,
				Fields: map[string]string{"buy_on_sell_world": "Must be a boolean"},
			})
			return
		}
		req.BuyOnSellWorld = b
	}
	h.evaluate(w, r, recipeID, req)
}

// HandleEvaluateWithSplits prices {recipeID} with the splits in the body.
func (h *Handler) HandleEvaluateWithSplits(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := pathID(w, r, "recipeID")
	if !ok {
		return
	}

	var req EvaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug("Invalid evaluation body", "error", err)
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequest)
		return
	}
	h.evaluate(w, r, recipeID, req)
}

func (h *Handler) evaluate(w http.ResponseWriter, r *http.Request, recipeID int, req EvaluationRequest) {
	if err := h.validator.ValidateStruct(req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  ErrMsgInvalidRequest,
			Fields: FormatValidationError(err),
		})
		return
	}

	report, err := h.service.Evaluate(r.Context(), lookup.Request{
		RecipeID:       recipeID,
		Region:         req.Region,
		SellRegion:     req.SellRegion,
		BuyOnSellWorld: req.BuyOnSellWorld,
		Splits:         req.Splits,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status, msg := mapServiceError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "error", err)
	} else {
		h.logger.Warn("Request rejected", "status", status, "error", err)
	}
	respondError(w, status, msg)
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err == nil && id <= 0 {
		err = errors.New("id must be positive")
	}
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  ErrMsgInvalidID,
			Fields: map[string]string{param: "Must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}
