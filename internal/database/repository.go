package database

import (
	"context"
	"errors"

	"craftcheck/internal/model"
)

// MaxIngredientSlots is the number of ingredient slots a recipe row carries.
const MaxIngredientSlots = 8

// ErrRecipeNotFound is returned when no recipe matches the requested id.
var ErrRecipeNotFound = errors.New("unknown recipe")

// Repository defines the standard interface for database operations.
type Repository interface {
	Migrate(ctx context.Context) error
	GetRecipe(ctx context.Context, recipeID int) (model.Recipe, error)
	FindRecipesByItem(ctx context.Context, itemID int) ([]model.RecipeSummary, error)
	ListRecipes(ctx context.Context) ([]model.RecipeSummary, error)
	SaveRecipe(ctx context.Context, recipe model.Recipe) error
}
