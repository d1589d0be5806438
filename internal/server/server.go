// Package server exposes the automation trigger and execution history over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Guidantas28/blog-generator/internal/automation"
	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/metrics"
)

const defaultHistoryLimit = 50

// Runner runs automation passes and manual posts.
type Runner interface {
	RunDue(ctx context.Context) (*automation.RunResult, error)
	Publish(ctx context.Context, req automation.PublishRequest) (*automation.PublishResult, error)
}

// ExecutionLister reads execution history.
type ExecutionLister interface {
	ListExecutions(ctx context.Context, f database.ExecutionFilter) ([]database.Execution, error)
}

// Options configures a Server.
type Options struct {
	// CronSecret, when non-empty, must be sent as a bearer token on every /api route.
	CronSecret string
	Metrics    *metrics.Metrics
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server is the HTTP front of the automation runner.
type Server struct {
	runner     Runner
	executions ExecutionLister
	opts       Options
	logger     *slog.Logger
	router     chi.Router
}

// New creates a server and its routes.
func New(runner Runner, executions ExecutionLister, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:     runner,
		executions: executions,
		opts:       opts,
		logger:     logger,
		router:     chi.NewRouter(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler(s.opts.Gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireCronSecret)
		r.Get("/run-automation", s.handleRunAutomation)
		r.Post("/run-automation", s.handleRunAutomation)
		r.Post("/publish", s.handlePublish)
		r.Get("/executions", s.handleListExecutions)
	})
}

// observe logs each request and records its metrics under the route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			s.opts.Metrics.RecordHTTPRequest(r.Method, path, strconv.Itoa(status), elapsed.Seconds())
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", elapsed,
				"request_id", middleware.GetReqID(r.Context()))
		}()

		next.ServeHTTP(ww, r)
	})
}

// requireCronSecret checks "Authorization: Bearer <secret>" when a secret is set.
func (s *Server) requireCronSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.CronSecret != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.CronSecret)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRunAutomation(w http.ResponseWriter, r *http.Request) {
	res, err := s.runner.RunDue(r.Context())
	if errors.Is(err, automation.ErrRunInProgress) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("automation run failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type publishRequest struct {
	UserID   string `json:"userId"`
	SiteID   string `json:"siteId"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Draft    bool   `json:"draft"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var body publishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.SiteID == "" {
		writeError(w, http.StatusBadRequest, "siteId is required")
		return
	}

	res, err := s.runner.Publish(r.Context(), automation.PublishRequest{
		UserID:   body.UserID,
		SiteID:   body.SiteID,
		Topic:    body.Topic,
		Category: body.Category,
		Draft:    body.Draft,
	})
	switch {
	case errors.Is(err, automation.ErrTopicRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "site not found")
	case err != nil:
		s.logger.Error("manual publish failed", "site_id", body.SiteID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusCreated, res)
	}
}

type executionView struct {
	ID           string     `json:"id"`
	AutomationID string     `json:"automationId"`
	SiteID       string     `json:"siteId"`
	Status       string     `json:"status"`
	PostID       *string    `json:"postId"`
	ErrorMessage *string    `json:"errorMessage"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt"`
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := database.ExecutionFilter{
		UserID:       q.Get("user_id"),
		AutomationID: q.Get("automation_id"),
		SiteID:       q.Get("site_id"),
		Limit:        defaultHistoryLimit,
	}
	if status := q.Get("status"); status != "" {
		filter.Status = database.ExecutionStatus(status)
		if !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, "status must be one of pending, running, completed, failed")
			return
		}
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	execs, err := s.executions.ListExecutions(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing executions failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	out := make([]executionView, 0, len(execs))
	for _, e := range execs {
		out = append(out, executionView{
			ID:           e.ID,
			AutomationID: e.AutomationID,
			SiteID:       e.SiteID,
			Status:       string(e.Status),
			PostID:       e.PostID,
			ErrorMessage: e.ErrorMessage,
			StartedAt:    e.StartedAt,
			CompletedAt:  e.CompletedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"executions": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
