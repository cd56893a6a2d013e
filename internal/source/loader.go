// Package source loads the two external artifacts the atlas is built from:
// the region boundary collection and the IQM workbook.
package source

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/iqm-atlas/internal/fetcher"
	"github.com/sells-group/iqm-atlas/internal/metrics"
	"github.com/sells-group/iqm-atlas/internal/model"
)

var errEmptySource = eris.New("source: no location configured")

// Geometry source formats.
const (
	FormatAuto      = "auto"
	FormatGeoJSON   = "geojson"
	FormatShapefile = "shapefile"
)

// GeometryFields names the feature attributes holding the join key, the
// display name and the state.
type GeometryFields struct {
	Code  string
	Name  string
	State string
}

func (f GeometryFields) region(props map[string]any, g geom.T) model.RegionGeometry {
	return model.RegionGeometry{
		Code:       props[f.Code],
		Name:       propertyString(props[f.Name]),
		State:      propertyString(props[f.State]),
		Properties: props,
		Geometry:   g,
	}
}

// Config identifies both sources and how to read them.
type Config struct {
	GeometrySource string
	GeometryFormat string
	GeometryFields GeometryFields
	WorkbookSource string
	Sheets         WorkbookSheets
	TempDir        string
}

// Sources is one consistent snapshot of both artifacts.
type Sources struct {
	Geometry *model.GeometrySet
	Workbook *model.Workbook
}

// Loader fetches and decodes the sources.
type Loader struct {
	fetcher fetcher.Fetcher
	cfg     Config
}

// NewLoader creates a Loader reading through f.
func NewLoader(f fetcher.Fetcher, cfg Config) *Loader {
	if cfg.GeometryFormat == "" {
		cfg.GeometryFormat = FormatAuto
	}
	return &Loader{fetcher: f, cfg: cfg}
}

// Config returns the loader configuration.
func (l *Loader) Config() Config {
	return l.cfg
}

// Load reads both sources concurrently. Either failure aborts the load; no
// partial Sources value is returned.
func (l *Loader) Load(ctx context.Context) (*Sources, error) {
	var out Sources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		geo, err := l.LoadGeometry(gctx)
		if err != nil {
			return err
		}
		out.Geometry = geo
		return nil
	})
	g.Go(func() error {
		wb, err := l.LoadWorkbook(gctx)
		if err != nil {
			return err
		}
		out.Workbook = wb
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadGeometry fetches and decodes the boundary collection.
func (l *Loader) LoadGeometry(ctx context.Context) (*model.GeometrySet, error) {
	src := l.cfg.GeometrySource
	start := time.Now()

	set, err := l.loadGeometry(ctx, src)
	observe("geometry", start, err)
	if err != nil {
		return nil, err
	}

	zap.L().Info("geometry source loaded",
		zap.String("source", src),
		zap.Int("features", len(set.Regions)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return set, nil
}

func (l *Loader) loadGeometry(ctx context.Context, src string) (*model.GeometrySet, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	switch l.geometryFormat(src, data) {
	case FormatShapefile:
		return DecodeShapefileZip(src, data, l.cfg.TempDir, l.cfg.GeometryFields)
	default:
		return DecodeGeoJSON(src, data, l.cfg.GeometryFields)
	}
}

// geometryFormat resolves "auto" from the path extension, then the content.
func (l *Loader) geometryFormat(src string, data []byte) string {
	if l.cfg.GeometryFormat != FormatAuto {
		return l.cfg.GeometryFormat
	}
	path := strings.ToLower(src)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	switch {
	case strings.HasSuffix(path, ".zip"):
		return FormatShapefile
	case strings.HasSuffix(path, ".json"), strings.HasSuffix(path, ".geojson"):
		return FormatGeoJSON
	case fetcher.IsZIP(data):
		return FormatShapefile
	default:
		return FormatGeoJSON
	}
}

// LoadWorkbook fetches and decodes the IQM workbook.
func (l *Loader) LoadWorkbook(ctx context.Context) (*model.Workbook, error) {
	src := l.cfg.WorkbookSource
	start := time.Now()

	wb, err := l.loadWorkbook(ctx, src)
	observe("workbook", start, err)
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.String("source", src),
		zap.Duration("elapsed", time.Since(start)),
	}
	for name, s := range wb.Sheets {
		fields = append(fields, zap.Int(name, len(s.Rows)))
	}
	zap.L().Info("workbook source loaded", fields...)
	return wb, nil
}

func (l *Loader) loadWorkbook(ctx context.Context, src string) (*model.Workbook, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return DecodeWorkbook(src, data, l.cfg.Sheets)
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &model.SourceUnavailableError{Source: src, Err: errEmptySource}
	}
	data, err := fetcher.ReadAll(ctx, l.fetcher, src)
	if err != nil {
		return nil, &model.SourceUnavailableError{Source: src, Err: err}
	}
	return data, nil
}

func observe(kind string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = model.ErrorKind(err)
	}
	metrics.SourceLoads.WithLabelValues(kind, outcome).Inc()
	metrics.SourceLoadSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
