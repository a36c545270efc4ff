package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"craftcheck/internal/metrics"
)

// maxBodyBytes bounds evaluation request bodies.
const maxBodyBytes = 1 << 20

// Server is the HTTP front end.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
}

// NewRouter builds the route table.
func NewRouter(logger *slog.Logger, service Evaluator) chi.Router {
	h := NewHandler(logger, service)

	r := chi.NewRouter()
	r.Use(metrics.Middleware)
	r.Use(limitBody)

	r.Get("/healthz", HandleHealthz())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recipes", h.HandleListRecipes)
		r.Get("/items/{itemID}/recipes", h.HandleRecipesForItem)
		r.Get("/recipes/{recipeID}/evaluation", h.HandleEvaluate)
		r.Post("/recipes/{recipeID}/evaluation", h.HandleEvaluateWithSplits)
	})
	return r
}

// NewServer creates a new Server listening on port.
func NewServer(logger *slog.Logger, port int, service Evaluator) *Server {
	return &Server{
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           NewRouter(logger, service),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Stop is called. It returns http.ErrServerClosed after
// a graceful stop.
func (s *Server) Start() error {
	s.logger.Info("Server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
