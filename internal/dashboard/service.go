// Package dashboard serves the view model behind the atlas: a memoized
// dataset built from both sources and the per-selection products derived
// from it.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/cache"
	"github.com/sells-group/iqm-atlas/internal/metrics"
	"github.com/sells-group/iqm-atlas/internal/model"
	"github.com/sells-group/iqm-atlas/internal/pipeline"
	"github.com/sells-group/iqm-atlas/internal/source"
)

// Loader reads one snapshot of both sources.
type Loader interface {
	Load(ctx context.Context) (*source.Sources, error)
	Config() source.Config
}

// SourceInvalidator drops cached source bytes, such as fetcher.RedisCache.
type SourceInvalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

// Options configures a Service.
type Options struct {
	Loader       Loader
	Cache        cache.Cache[*model.Dataset]
	SourceCache  SourceInvalidator
	Columns      pipeline.Columns
	Indicators   []string
	TopIndicator string
	TopLimit     int
}

// Service builds the dataset once per source pair and answers selections
// against it. It is safe for concurrent use.
type Service struct {
	loader       Loader
	cache        cache.Cache[*model.Dataset]
	sourceCache  SourceInvalidator
	columns      pipeline.Columns
	indicators   []string
	topIndicator string
	topLimit     int
	now          func() time.Time
}

// New creates a Service. A nil Cache gets an unbounded in-memory cache.
func New(opts Options) *Service {
	c := opts.Cache
	if c == nil {
		c = cache.NewMemory[*model.Dataset](0, 0)
	}
	topLimit := opts.TopLimit
	if topLimit <= 0 {
		topLimit = 10
	}
	return &Service{
		loader:       opts.Loader,
		cache:        c,
		sourceCache:  opts.SourceCache,
		columns:      opts.Columns,
		indicators:   opts.Indicators,
		topIndicator: opts.TopIndicator,
		topLimit:     topLimit,
		now:          time.Now,
	}
}

// Key identifies the dataset built from the configured sources.
func (s *Service) Key() string {
	cfg := s.loader.Config()
	return cfg.GeometrySource + "|" + cfg.WorkbookSource
}

// Columns returns the ranking column names in use.
func (s *Service) Columns() pipeline.Columns {
	return s.columns
}

// TopDefaults returns the default indicator and limit for Top.
func (s *Service) TopDefaults() (string, int) {
	return s.topIndicator, s.topLimit
}

// Dataset returns the memoized dataset, loading and joining both sources on
// first use or after Refresh. Loader errors leave nothing cached.
func (s *Service) Dataset(ctx context.Context) (*model.Dataset, error) {
	return s.cache.GetOrCompute(ctx, s.Key(), s.build)
}

// Refresh discards the cached dataset and cached source bytes, then reloads.
func (s *Service) Refresh(ctx context.Context) (*model.Dataset, error) {
	cfg := s.loader.Config()
	s.cache.Invalidate(s.Key())
	if s.sourceCache != nil {
		if err := s.sourceCache.Invalidate(ctx, cfg.GeometrySource, cfg.WorkbookSource); err != nil {
			zap.L().Warn("refresh: source cache invalidation failed", zap.Error(err))
		}
	}
	zap.L().Info("dataset invalidated", zap.String("key", s.Key()))
	return s.Dataset(ctx)
}

func (s *Service) build(ctx context.Context) (*model.Dataset, error) {
	start := s.now()
	ds, err := s.load(ctx)
	if err != nil {
		metrics.DatasetBuilds.WithLabelValues(model.ErrorKind(err)).Inc()
		zap.L().Error("dataset build failed", zap.String("kind", model.ErrorKind(err)), zap.Error(err))
		return nil, err
	}

	metrics.DatasetBuilds.WithLabelValues("ok").Inc()
	metrics.DatasetRegions.Set(float64(len(ds.Regions)))
	metrics.DatasetUnmatched.WithLabelValues("ranking").Set(float64(ds.Stats.UnmatchedRanking))
	metrics.DatasetUnmatched.WithLabelValues("geometry").Set(float64(ds.Stats.UnmatchedGeometry))

	zap.L().Info("dataset built",
		zap.String("id", ds.ID),
		zap.Int("regions", len(ds.Regions)),
		zap.Strings("indicators", ds.Indicators),
		zap.Int("qualification_rows", len(ds.Qualification)),
		zap.Duration("elapsed", s.now().Sub(start)),
	)
	return ds, nil
}

func (s *Service) load(ctx context.Context) (*model.Dataset, error) {
	cfg := s.loader.Config()

	src, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	ranking, err := pipeline.DecodeRanking(src.Workbook.Sheet(cfg.Sheets.Ranking), s.columns, s.indicators)
	if err != nil {
		return nil, err
	}
	ranking.Source = cfg.WorkbookSource

	qualification, err := pipeline.DecodeQualification(src.Workbook.Sheet(cfg.Sheets.Qualification), s.columns.Code)
	if err != nil {
		return nil, err
	}

	regions, stats, err := pipeline.Join(ranking, src.Geometry, cfg.GeometryFields.Code)
	if err != nil {
		return nil, err
	}

	return &model.Dataset{
		ID:             uuid.NewString(),
		LoadedAt:       s.now().UTC(),
		GeometrySource: cfg.GeometrySource,
		WorkbookSource: cfg.WorkbookSource,
		Indicators:     ranking.Indicators,
		Regions:        regions,
		Qualification:  qualification,
		Stats:          stats,
	}, nil
}

// View builds the map and table products for sel.
func (s *Service) View(ctx context.Context, sel model.Selection) (*pipeline.View, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	v, err := pipeline.BuildView(ds.Regions, ds.Indicators, sel)
	observeSelection("view", err)
	return v, err
}

// Top returns the national top-n table. An empty indicator uses the
// configured default.
func (s *Service) Top(ctx context.Context, indicator string, n int) (pipeline.Table, error) {
	if indicator == "" {
		indicator = s.topIndicator
	}
	ds, err := s.Dataset(ctx)
	if err != nil {
		return pipeline.Table{}, err
	}
	ranked, err := pipeline.Top(ds.Regions, indicator, ds.Indicators, n)
	observeSelection("top", err)
	if err != nil {
		return pipeline.Table{}, err
	}
	return pipeline.NewTable(ranked, indicator, ds.Indicators), nil
}

// States lists the selectable states.
func (s *Service) States(ctx context.Context) ([]string, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.States(ds.Regions), nil
}

// RegionNames lists the selectable region names within states.
func (s *Service) RegionNames(ctx context.Context, states []string) ([]string, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	names, err := pipeline.RegionNames(ds.Regions, states)
	observeSelection("regions", err)
	return names, err
}

// Indicators lists the selectable indicators in configured order.
func (s *Service) Indicators(ctx context.Context) ([]string, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return nil, err
	}
	return ds.Indicators, nil
}

// Qualification returns the detail record for a region code.
func (s *Service) Qualification(ctx context.Context, code string) (model.QualificationRecord, bool, error) {
	ds, err := s.Dataset(ctx)
	if err != nil {
		return model.QualificationRecord{}, false, err
	}
	rec, ok := ds.Qualification[pipeline.NormalizeCode(code)]
	return rec, ok, nil
}

func observeSelection(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = model.ErrorKind(err)
	}
	metrics.Selections.WithLabelValues(op, outcome).Inc()
}
