package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/iqm-atlas/internal/model"
	"github.com/sells-group/iqm-atlas/internal/pipeline"
	"github.com/sells-group/iqm-atlas/internal/source"
)

const indicator = "IQM / 2025"

type fakeLoader struct {
	cfg   source.Config
	calls atomic.Int32
	err   error
	srcs  func() *source.Sources
}

func (f *fakeLoader) Load(context.Context) (*source.Sources, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.srcs(), nil
}

func (f *fakeLoader) Config() source.Config { return f.cfg }

type fakeInvalidator struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, ids...)
	return f.err
}

func square(x, y float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{x, y, x, y + 1, x + 1, y + 1, x + 1, y, x, y}, []int{10})
}

func feature(code any, name, state string, x float64) model.RegionGeometry {
	return model.RegionGeometry{
		Code:       code,
		Name:       name,
		State:      state,
		Properties: map[string]any{"CD_MICRO": code, "NM_MICRO": name, "SIGLA_UF": state},
		Geometry:   square(x, -23),
	}
}

func scenarioSources() *source.Sources {
	return &source.Sources{
		Geometry: &model.GeometrySet{
			Source: "micro.geojson",
			Fields: []string{"CD_MICRO", "NM_MICRO", "SIGLA_UF"},
			Regions: []model.RegionGeometry{
				feature(3509, "Campinas", "SP", -47),
				feature("3548", "Santos", "SP", -46),
				feature("3303", "Niterói", "RJ", -43),
			},
		},
		Workbook: &model.Workbook{
			Source: "iqm.xlsx",
			Sheets: map[string]*model.Sheet{
				"IQM_Ranking": {
					Name:   "IQM_Ranking",
					Header: []string{"UF", "Microrregião", "Código da Microrregião", "IQM / 2025", "IQM-D"},
					Rows: [][]string{
						{"SP", "Campinas", "3509", "72.50", "0.5"},
						{"SP", "Santos", "3548", "81.10", "0.4"},
						{"RJ", "Niterói", "3303", "65.00", "0.9"},
						{"AM", "Sem mapa", "1301", "90", "0.1"},
					},
				},
				"IQM_Qualificação": {
					Name:   "IQM_Qualificação",
					Header: []string{"Código da Microrregião", "Saneamento"},
					Rows:   [][]string{{"3509", "Alto"}},
				},
			},
		},
	}
}

func newTestService(loader *fakeLoader, inv SourceInvalidator) *Service {
	return New(Options{
		Loader:       loader,
		SourceCache:  inv,
		Columns:      pipeline.Columns{State: "UF", Name: "Microrregião", Code: "Código da Microrregião"},
		Indicators:   []string{"IQM / 2025", "IQM-D", "IQM-C", "IQM-IU"},
		TopIndicator: indicator,
		TopLimit:     10,
	})
}

func scenarioLoader() *fakeLoader {
	return &fakeLoader{
		cfg: source.Config{
			GeometrySource: "https://example.test/micro.geojson",
			GeometryFields: source.GeometryFields{Code: "CD_MICRO", Name: "NM_MICRO", State: "SIGLA_UF"},
			WorkbookSource: "https://example.test/iqm.xlsx",
			Sheets:         source.WorkbookSheets{Ranking: "IQM_Ranking", Qualification: "IQM_Qualificação"},
		},
		srcs: scenarioSources,
	}
}

func TestService_Dataset(t *testing.T) {
	loader := scenarioLoader()
	svc := newTestService(loader, nil)

	ds, err := svc.Dataset(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "https://example.test/micro.geojson", ds.GeometrySource)
	assert.Equal(t, []string{"IQM / 2025", "IQM-D"}, ds.Indicators)
	assert.Len(t, ds.Regions, 3)
	assert.Equal(t, 1, ds.Stats.UnmatchedRanking)
	assert.Len(t, ds.Qualification, 1)

	again, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	assert.Same(t, ds, again)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.Equal(t, "https://example.test/micro.geojson|https://example.test/iqm.xlsx", svc.Key())
}

func TestService_LoaderErrorNotCached(t *testing.T) {
	loader := scenarioLoader()
	loader.err = &model.SourceUnavailableError{Source: "https://example.test/micro.geojson", Err: errors.New("timeout")}
	svc := newTestService(loader, nil)

	_, err := svc.View(context.Background(), model.Selection{States: []string{"SP"}, Indicator: indicator})
	require.Error(t, err)
	assert.True(t, model.IsLoaderError(err))

	loader.err = nil
	ds, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Regions, 3)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestService_ConfigurationError(t *testing.T) {
	loader := scenarioLoader()
	loader.cfg.GeometryFields.Code = "CD_MICRO_2022"
	svc := newTestService(loader, nil)

	_, err := svc.Dataset(context.Background())
	var cfg *model.ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "CD_MICRO_2022", cfg.Column)
}

func TestService_Refresh(t *testing.T) {
	loader := scenarioLoader()
	inv := &fakeInvalidator{}
	svc := newTestService(loader, inv)

	first, err := svc.Dataset(context.Background())
	require.NoError(t, err)

	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, int32(2), loader.calls.Load())
	assert.Equal(t, []string{"https://example.test/micro.geojson", "https://example.test/iqm.xlsx"}, inv.ids)

	cached, err := svc.Dataset(context.Background())
	require.NoError(t, err)
	assert.Equal(t, second.ID, cached.ID)
}

func TestService_RefreshInvalidatorErrorTolerated(t *testing.T) {
	svc := newTestService(scenarioLoader(), &fakeInvalidator{err: errors.New("redis down")})
	_, err := svc.Refresh(context.Background())
	assert.NoError(t, err)
}

func TestService_View(t *testing.T) {
	svc := newTestService(scenarioLoader(), nil)

	view, err := svc.View(context.Background(), model.Selection{
		States:    []string{"SP"},
		Regions:   []string{"Campinas", "Santos"},
		Indicator: indicator,
	})
	require.NoError(t, err)

	require.Len(t, view.Table.Rows, 2)
	assert.Equal(t, "Santos", view.Table.Rows[0].Name)
	assert.Equal(t, 81.10, *view.Table.Rows[0].Value)
	assert.Equal(t, "Campinas", view.Table.Rows[1].Name)
	assert.Len(t, view.Features.Features, 2)

	_, err = svc.View(context.Background(), model.Selection{Indicator: indicator})
	assert.True(t, model.IsSelectionError(err))

	_, err = svc.View(context.Background(), model.Selection{States: []string{"SP"}, Indicator: "IQM-C"})
	var ind *model.InvalidIndicatorError
	require.ErrorAs(t, err, &ind)
	assert.Equal(t, []string{"IQM / 2025", "IQM-D"}, ind.Allowed)
}

func TestService_Top(t *testing.T) {
	svc := newTestService(scenarioLoader(), nil)

	table, err := svc.Top(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Equal(t, indicator, table.Indicator)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Santos", table.Rows[0].Name)
	assert.Equal(t, "Campinas", table.Rows[1].Name)

	table, err = svc.Top(context.Background(), "IQM-D", 1)
	require.NoError(t, err)
	assert.Equal(t, "Niterói", table.Rows[0].Name)

	_, err = svc.Top(context.Background(), "", 0)
	assert.True(t, model.IsSelectionError(err))

	ind, limit := svc.TopDefaults()
	assert.Equal(t, indicator, ind)
	assert.Equal(t, 10, limit)
}

func TestService_Options(t *testing.T) {
	svc := newTestService(scenarioLoader(), nil)
	ctx := context.Background()

	states, err := svc.States(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"RJ", "SP"}, states)

	names, err := svc.RegionNames(ctx, []string{"SP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Campinas", "Santos"}, names)

	_, err = svc.RegionNames(ctx, nil)
	assert.True(t, model.IsSelectionError(err))

	inds, err := svc.Indicators(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"IQM / 2025", "IQM-D"}, inds)
}

func TestService_Qualification(t *testing.T) {
	svc := newTestService(scenarioLoader(), nil)

	rec, ok, err := svc.Qualification(context.Background(), " 3509.0 ")
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := rec.Get("Saneamento")
	assert.Equal(t, "Alto", v)

	_, ok, err = svc.Qualification(context.Background(), "9999")
	require.NoError(t, err)
	assert.False(t, ok)
}
