// Package server exposes the prediction pipeline over HTTP: batch scoring,
// the rolling revenue projection, and the assistant.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/klug-labs/closing-cli/internal/artifact"
	"github.com/klug-labs/closing-cli/internal/assistant"
	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/internal/predict"
	"github.com/klug-labs/closing-cli/internal/store"
)

// Server holds the pieces the API needs: the trained artifacts for scoring,
// the store for run history, and optionally the assistant.
type Server struct {
	store     store.Store
	predictor *predict.Predictor
	assistant *assistant.Assistant
	now       func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithAssistant enables the POST /api/assistant endpoint. Without it the
// endpoint answers 503.
func WithAssistant(a *assistant.Assistant) Option {
	return func(s *Server) { s.assistant = a }
}

// WithNow overrides the projection clock. Used by tests.
func WithNow(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a Server scoring against the given artifact pair.
func New(st store.Store, a *artifact.Artifacts, opts ...Option) *Server {
	s := &Server{
		store:     st,
		predictor: predict.New(a),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/predictions", s.handlePredictions)
		r.Get("/projection", s.handleProjection)
		r.Post("/assistant", s.handleAssistant)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePredictions scores a JSON array of opportunity records, persists the
// run, and returns it. Record keys follow the canonical column vocabulary.
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	var records []model.Opportunity
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusBadRequest, "no records provided")
		return
	}

	run, err := s.predictor.Run(records)
	if err != nil {
		zap.L().Error("api: batch prediction failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	if err := s.store.SavePredictionRun(r.Context(), run); err != nil {
		zap.L().Error("api: save prediction run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "save run failed")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleProjection returns the 12-month revenue projection for the most
// recent stored run.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.LatestPredictionRun(r.Context())
	if err != nil {
		if eris.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "no prediction runs yet")
			return
		}
		zap.L().Error("api: load latest run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load run failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     run.ID,
		"created_at": run.CreatedAt,
		"projection": predict.Project(run.Predictions, s.now()),
	})
}

// handleAssistant answers a free-form question about the latest run.
func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	run, err := s.store.LatestPredictionRun(r.Context())
	if err != nil {
		if eris.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "no prediction runs yet")
			return
		}
		zap.L().Error("api: load latest run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "load run failed")
		return
	}

	answer, err := s.assistant.Answer(r.Context(), req.Question, run, predict.Project(run.Predictions, s.now()))
	if err != nil {
		zap.L().Error("api: assistant failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "assistant request failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"run_id": run.ID,
		"answer": answer,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
