// Package http exposes certprep over HTTP: leaderboard JSON endpoints,
// metrics, and a websocket carrying the quiz flow protocol.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"certprep/internal/app"
	"certprep/pkg/logger"
	"certprep/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// BankLister enumerates question banks available to load by name.
type BankLister interface {
	ListBanks(ctx context.Context) ([]string, error)
}

// RouterConfig carries the dependencies of NewRouter.
type RouterConfig struct {
	Loader         *app.Loader
	Banks          BankLister
	Leaderboard    *app.Leaderboard
	Metrics        *metrics.Recorder
	Logger         logger.Logger
	AllowedOrigins []string
}

// NewRouter wires the HTTP surface.
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	api := &apiHandler{banks: cfg.Banks, board: cfg.Leaderboard, log: log}
	r.Route("/api", func(ar chi.Router) {
		ar.Get("/banks", api.listBanks)
		ar.Get("/leaderboard", api.listLeaderboard)
		ar.Delete("/leaderboard", api.clearLeaderboard)
	})

	ws := NewWSHandler(cfg.Loader, cfg.Leaderboard, log.Named("ws"), cfg.Metrics, origins)
	r.Get("/ws", ws.ServeWS)
	return r
}

type apiHandler struct {
	banks BankLister
	board *app.Leaderboard
	log   logger.Logger
}

func (h *apiHandler) listBanks(w http.ResponseWriter, r *http.Request) {
	if h.banks == nil {
		respondJSON(w, http.StatusOK, map[string]any{"banks": []string{}})
		return
	}
	names, err := h.banks.ListBanks(r.Context())
	if err != nil {
		h.log.Warn(r.Context(), "list banks failed", logger.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorPayload{Message: "could not list question banks"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"banks": names})
}

func (h *apiHandler) listLeaderboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"entries": h.board.List(r.Context())})
}

func (h *apiHandler) clearLeaderboard(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Clear(r.Context()); err != nil {
		h.log.Error(r.Context(), "leaderboard clear failed", logger.Error(err))
		respondJSON(w, http.StatusInternalServerError, errorPayload{Message: "could not clear leaderboard"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Debug(r.Context(), "http request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Any("duration", time.Since(start)),
				logger.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
