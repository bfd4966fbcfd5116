// Package api provides the HTTP server of the agriculture dashboard.
//
// It exposes the view, crop and export endpoints, the server-rendered
// dashboard page, chart images and a WebSocket channel for selection events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/config"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dashboard"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/dataset"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/infra"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/internal/report"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/pkg/utils"
	"github.com/JimbaRabgyal/Agriculture-Dashboard/web"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	store   *dataset.Store
	dash    *dashboard.Dashboard
	cache   *infra.RenderCache
	wsHub   *WSHub
	serveUI bool // when true, serve the dashboard page at /
}

// NewServer creates a configured API server with all routes and middleware.
// The render cache is flushed and WebSocket clients are notified whenever
// the store reloads.
func NewServer(cfg *config.Config, store *dataset.Store, dash *dashboard.Dashboard) *Server {
	srv := &Server{
		cfg:     cfg,
		store:   store,
		dash:    dash,
		cache:   infra.NewRenderCache(time.Duration(cfg.Render.CacheTTL) * time.Second),
		wsHub:   NewWSHub(),
		serveUI: true,
	}
	store.OnReload(srv.onReload)

	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the dashboard page and static assets are
// served. Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe starts the HTTP server and blocks until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()
	go s.cache.RunCleanup(ctx, time.Minute)
	if s.cfg.Data.Watch {
		go func() {
			if err := s.store.Watch(ctx); err != nil {
				log.Printf("api: file watch stopped: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Printf("api: listening on %s", addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}
	log.Println("api: shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if s.cfg.Logging.RequestLogging() {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// Health (also available at /health)
			r.Get("/health", s.handleHealth)

			// Views and crops
			r.Get("/views", s.handleViews)
			r.Get("/crops", s.handleCrops)
			r.Get("/views/{view}", s.handlePanel)
			r.Get("/views/{view}/chart.{format}", s.handleChart)

			// Export
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/export.xlsx", s.handleExportXLSX)
			r.Get("/export/datauri", s.handleExportDataURI)

			// Dataset
			r.Post("/reload", s.handleReload)

			// Config
			r.Get("/config", s.handleGetConfig)
		})

		// WebSocket connections are long-lived; no request timeout.
		r.Get("/ws", s.handleWebSocket)
	})

	if s.serveUI {
		s.mountStatic(r, web.StaticFS())
		r.Get("/", s.handlePage)
	}

	return r
}

// mountStatic serves the embedded static assets under /static/.
func (s *Server) mountStatic(r chi.Router, staticFS fs.FS) {
	fileServer := http.StripPrefix("/static/", http.FileServerFS(staticFS))
	r.Get("/static/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}

// onReload runs after every successful dataset reload.
func (s *Server) onReload(t *dataset.Table) {
	s.cache.Flush()
	s.wsHub.Broadcast(WSMessage{
		Type: "dataset_reloaded",
		Data: map[string]any{
			"rows":  t.Len(),
			"crops": t.Crops(),
		},
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string           `json:"status"`
	DataPath  string           `json:"data_path"`
	Rows      int              `json:"rows"`
	Crops     int              `json:"crops"`
	LoadedAt  time.Time        `json:"loaded_at"`
	WSClients int              `json:"ws_clients"`
	Cache     infra.CacheStats `json:"cache"`
}

// ViewInfo describes one view for GET /api/v1/views.
type ViewInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DataURIResponse is the body of GET /api/v1/export/datauri.
type DataURIResponse struct {
	Filename string `json:"filename"`
	URI      string `json:"uri"`
}

// ReloadResponse is the body of POST /api/v1/reload.
type ReloadResponse struct {
	Rows     int       `json:"rows"`
	Crops    []string  `json:"crops"`
	LoadedAt time.Time `json:"loaded_at"`
}

// ============================================================
// Selection parsing
// ============================================================

// selection reads a Selection from the request. The view comes from the
// {view} URL parameter when present, otherwise from ?view=. A missing crop
// falls back to the configured default, then to the first crop in the table.
func (s *Server) selection(r *http.Request, t *dataset.Table) (dashboard.Selection, error) {
	q := r.URL.Query()

	rawView := chi.URLParam(r, "view")
	if rawView == "" {
		rawView = q.Get("view")
	}
	if rawView == "" {
		rawView = s.cfg.Dashboard.DefaultView
	}
	view, err := dashboard.ParseView(rawView)
	if err != nil {
		return dashboard.Selection{}, err
	}

	return dashboard.Selection{
		View:     view,
		Crop:     s.resolveCrop(q.Get("crop"), t),
		ShowData: truthy(q.Get("data")),
		ShowCode: truthy(q.Get("code")),
	}, nil
}

func (s *Server) resolveCrop(crop string, t *dataset.Table) string {
	crops := t.Crops()
	if strings.TrimSpace(crop) != "" {
		return utils.MatchCrop(crop, crops)
	}
	if d := s.cfg.Dashboard.DefaultCrop; d != "" {
		return utils.MatchCrop(d, crops)
	}
	if len(crops) > 0 {
		return crops[0]
	}
	return ""
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var empty *dashboard.EmptySelectionError
	var load *dataset.DataLoadError
	switch {
	case errors.As(err, &empty):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrUnknownView), errors.Is(err, report.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.As(err, &load):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with the status chosen by statusFor.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	writeError(w, status, err.Error())
}
