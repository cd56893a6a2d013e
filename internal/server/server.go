// Package server exposes the dashboard over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/metrics"
	"github.com/sells-group/iqm-atlas/internal/model"
	"github.com/sells-group/iqm-atlas/internal/pipeline"
)

// Dashboard is the view-model service behind the API.
type Dashboard interface {
	Dataset(ctx context.Context) (*model.Dataset, error)
	Refresh(ctx context.Context) (*model.Dataset, error)
	View(ctx context.Context, sel model.Selection) (*pipeline.View, error)
	Top(ctx context.Context, indicator string, n int) (pipeline.Table, error)
	States(ctx context.Context) ([]string, error)
	RegionNames(ctx context.Context, states []string) ([]string, error)
	Indicators(ctx context.Context) ([]string, error)
	Qualification(ctx context.Context, code string) (model.QualificationRecord, bool, error)
	Columns() pipeline.Columns
	TopDefaults() (string, int)
}

// Options configures the HTTP handler.
type Options struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// New builds the API router.
func New(d Dashboard, opts Options) http.Handler {
	h := &handlers{dash: d}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Get("/dataset", h.dataset)
		r.Post("/refresh", h.refresh)
		r.Get("/states", h.states)
		r.Get("/regions", h.regions)
		r.Get("/regions/{code}/qualification", h.qualification)
		r.Get("/indicators", h.indicators)
		r.Get("/view", h.view)
		r.Get("/view/map", h.viewMap)
		r.Get("/view/table.csv", h.viewCSV)
		r.Get("/top", h.top)
	})

	return r
}

// instrument records per-route metrics and logs each request.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.HTTPDurationMs.WithLabelValues(route).Observe(float64(elapsed.Milliseconds()))

		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
