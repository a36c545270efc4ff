package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"craftcheck/internal/api"
	"craftcheck/internal/config"
	"craftcheck/internal/database"
	"craftcheck/internal/lookup"
	"craftcheck/internal/model"
	"craftcheck/internal/pricing"
	"craftcheck/internal/universalis"
)

// options are the command-line flags.
type options struct {
	configPath string
	seedFile   string
	request    lookup.Request
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("craftcheck", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", ".", "directory containing config.yaml")
	fs.StringVar(&opts.seedFile, "seed", "", "load recipes from a JSON file before starting")
	fs.IntVar(&opts.request.RecipeID, "recipe", 0, "evaluate one recipe and print it as JSON instead of serving")
	fs.StringVar(&opts.request.Region, "region", "", "region to buy in (defaults to market.default_region)")
	fs.StringVar(&opts.request.SellRegion, "sell-region", "", "region to sell in (defaults to -region)")
	fs.BoolVar(&opts.request.BuyOnSellWorld, "buy-on-sell-world", false, "buy ingredients on -sell-region instead of -region")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, logger, cfg.Database)
	if err != nil {
		logger.Error("Cannot connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := database.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		logger.Error("Cannot migrate database", "error", err)
		os.Exit(1)
	}

	if opts.seedFile != "" {
		if err := seed(ctx, logger, repo, opts.seedFile); err != nil {
			logger.Error("Cannot seed recipes", "file", opts.seedFile, "error", err)
			os.Exit(1)
		}
	}

	prices, err := universalis.NewFromConfig(logger, &cfg)
	if err != nil {
		logger.Error("Cannot create price client", "error", err)
		os.Exit(1)
	}

	thresholds := pricing.Thresholds{
		SlowVelocity: cfg.Thresholds.SlowVelocity,
		FastVelocity: cfg.Thresholds.FastVelocity,
		LowMargin:    cfg.Thresholds.LowMargin,
	}
	service := lookup.NewService(logger, repo, prices, pricing.NewEngine(logger), thresholds, cfg.Market.DefaultRegion)

	if opts.request.RecipeID != 0 {
		if err := evaluateOnce(ctx, service, opts.request); err != nil {
			logger.Error("Evaluation failed", "recipeID", opts.request.RecipeID, "error", err)
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, logger, cfg.Server.Port, service); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func evaluateOnce(ctx context.Context, service *lookup.Service, req lookup.Request) error {
	report, err := service.Evaluate(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func serve(ctx context.Context, logger *slog.Logger, port int, service *lookup.Service) error {
	srv := api.NewServer(logger, port, service)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func seed(ctx context.Context, logger *slog.Logger, repo database.Repository, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var recipes []model.Recipe
	if err := json.Unmarshal(raw, &recipes); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	for _, r := range recipes {
		if err := repo.SaveRecipe(ctx, r); err != nil {
			return err
		}
	}
	logger.Info("Seeded recipes", "count", len(recipes))
	return nil
}
