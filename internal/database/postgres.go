package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"craftcheck/internal/config"
	"craftcheck/internal/model"
)

const (
	partResult     = "result"
	partIngredient = "ingredient"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS recipe_lines (
	recipe_id   INTEGER NOT NULL,
	part        VARCHAR(16) NOT NULL CHECK (part IN ('result', 'ingredient')),
	slot        SMALLINT NOT NULL CHECK (slot BETWEEN 0 AND 7),
	job         VARCHAR(8) NOT NULL DEFAULT '',
	item_id     INTEGER NOT NULL,
	item_name   TEXT NOT NULL,
	item_icon   INTEGER NOT NULL DEFAULT 0,
	item_amount INTEGER NOT NULL CHECK (item_amount >= 0),
	shop_price  BIGINT,
	PRIMARY KEY (recipe_id, part, slot)
);
CREATE INDEX IF NOT EXISTS recipe_lines_result_item_idx
	ON recipe_lines (item_id) WHERE part = 'result';`

// PostgresRepository implements Repository for PostgreSQL.
type PostgresRepository struct {
	Pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool}
}

// NewPool creates a PostgreSQL connection pool and verifies connectivity.
func NewPool(ctx context.Context, logger *slog.Logger, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	maxConns := cfg.MaxConns
	if maxConns > math.MaxInt32 {
		maxConns = math.MaxInt32
	}
	poolCfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Connected to database", "host", cfg.Host, "dbname", cfg.DBName)
	return pool, nil
}

// Migrate creates the recipe table if it does not exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("migrate recipe_lines: %w", err)
	}
	return nil
}

// GetRecipe loads a recipe by id. Ingredient slots with a zero amount are
// dropped.
func (r *PostgresRepository) GetRecipe(ctx context.Context, recipeID int) (model.Recipe, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT part, job, item_id, item_name, item_icon, item_amount, shop_price
		FROM recipe_lines
		WHERE recipe_id = $1
		ORDER BY part DESC, slot`, recipeID)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("query recipe %d: %w", recipeID, err)
	}
	defer rows.Close()

	recipe := model.Recipe{ID: recipeID}
	hasResult := false
	for rows.Next() {
		var (
			part, job string
			line      model.RecipeLine
		)
		if err := rows.Scan(&part, &job, &line.ItemID, &line.Name, &line.Icon, &line.Amount, &line.FixedPrice); err != nil {
			return model.Recipe{}, fmt.Errorf("scan recipe %d: %w", recipeID, err)
		}
		switch part {
		case partResult:
			recipe.Result = line
			recipe.Job = job
			hasResult = true
		case partIngredient:
			if line.Amount > 0 {
				recipe.Ingredients = append(recipe.Ingredients, line)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return model.Recipe{}, fmt.Errorf("read recipe %d: %w", recipeID, err)
	}
	if !hasResult {
		return model.Recipe{}, fmt.Errorf("%w: %d", ErrRecipeNotFound, recipeID)
	}
	return recipe, nil
}

// FindRecipesByItem lists every recipe producing itemID.
func (r *PostgresRepository) FindRecipesByItem(ctx context.Context, itemID int) ([]model.RecipeSummary, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT recipe_id, item_id, item_name, job
		FROM recipe_lines
		WHERE part = 'result' AND item_id = $1
		ORDER BY recipe_id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("query recipes for item %d: %w", itemID, err)
	}
	return collectSummaries(rows)
}

// ListRecipes lists every recipe result.
func (r *PostgresRepository) ListRecipes(ctx context.Context) ([]model.RecipeSummary, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT recipe_id, item_id, item_name, job
		FROM recipe_lines
		WHERE part = 'result'
		ORDER BY item_name, recipe_id`)
	if err != nil {
		return nil, fmt.Errorf("query recipes: %w", err)
	}
	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]model.RecipeSummary, error) {
	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.RecipeSummary, error) {
		var s model.RecipeSummary
		err := row.Scan(&s.RecipeID, &s.ItemID, &s.ItemName, &s.Job)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect recipes: %w", err)
	}
	LabelSummaries(summaries)
	return summaries, nil
}

// LabelSummaries sets a display label on each summary. Items craftable by
// more than one job carry the job in the label.
func LabelSummaries(summaries []model.RecipeSummary) {
	counts := make(map[int]int, len(summaries))
	for _, s := range summaries {
		counts[s.ItemID]++
	}
	for i := range summaries {
		s := &summaries[i]
		s.Label = fmt.Sprintf("%s (%d)", s.ItemName, s.ItemID)
		if counts[s.ItemID] > 1 {
			s.Label += fmt.Sprintf(" (%s)", s.Job)
		}
	}
}

// SaveRecipe replaces every row of recipe.ID.
func (r *PostgresRepository) SaveRecipe(ctx context.Context, recipe model.Recipe) error {
	if len(recipe.Ingredients) > MaxIngredientSlots {
		return fmt.Errorf("recipe %d has %d ingredients, at most %d allowed",
			recipe.ID, len(recipe.Ingredients), MaxIngredientSlots)
	}

	return pgx.BeginFunc(ctx, r.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM recipe_lines WHERE recipe_id = $1`, recipe.ID); err != nil {
			return fmt.Errorf("clear recipe %d: %w", recipe.ID, err)
		}

		batch := &pgx.Batch{}
		insert := `
			INSERT INTO recipe_lines (recipe_id, part, slot, job, item_id, item_name, item_icon, item_amount, shop_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
		queue := func(part string, slot int, l model.RecipeLine) {
			batch.Queue(insert, recipe.ID, part, slot, recipe.Job, l.ItemID, l.Name, l.Icon, l.Amount, l.FixedPrice)
		}
		queue(partResult, 0, recipe.Result)
		for i, ing := range recipe.Ingredients {
			queue(partIngredient, i, ing)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert recipe %d: %w", recipe.ID, err)
		}
		return nil
	})
}
