package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/iqm-atlas/internal/model"
)

func testConfig() Config {
	return Config{
		GeometrySource: "https://example.test/micro.geojson",
		GeometryFields: testFields(),
		WorkbookSource: "https://example.test/iqm.xlsx",
		Sheets:         testSheets(),
	}
}

func TestLoader_Load(t *testing.T) {
	f := mapFetcher{
		"https://example.test/micro.geojson": []byte(sampleGeoJSON),
		"https://example.test/iqm.xlsx":      buildXLSX(t, map[string][][]string{"IQM_Ranking": rankingRows()}),
	}
	cfg := testConfig()
	cfg.TempDir = t.TempDir()

	got, err := NewLoader(f, cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Geometry.Regions, 3)
	assert.Len(t, got.Workbook.Sheet("IQM_Ranking").Rows, 2)
}

func TestLoader_GeometryUnavailable(t *testing.T) {
	f := mapFetcher{
		"https://example.test/iqm.xlsx": buildXLSX(t, map[string][][]string{"IQM_Ranking": rankingRows()}),
	}

	got, err := NewLoader(f, testConfig()).Load(context.Background())
	assert.Nil(t, got)

	var unavailable *model.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "https://example.test/micro.geojson", unavailable.Source)
	assert.True(t, model.IsLoaderError(err))
}

func TestLoader_WorkbookFormat(t *testing.T) {
	f := mapFetcher{
		"https://example.test/micro.geojson": []byte(sampleGeoJSON),
		"https://example.test/iqm.xlsx":      []byte("not a workbook"),
	}

	_, err := NewLoader(f, testConfig()).Load(context.Background())

	var format *model.SourceFormatError
	require.ErrorAs(t, err, &format)
}

func TestLoader_EmptySource(t *testing.T) {
	cfg := testConfig()
	cfg.WorkbookSource = " "

	_, err := NewLoader(mapFetcher{}, cfg).LoadWorkbook(context.Background())

	var unavailable *model.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestLoader_ShapefileByContent(t *testing.T) {
	archive := buildZIP(t, writeShapefile(t, t.TempDir()))
	cfg := testConfig()
	cfg.GeometrySource = "https://example.test/download?id=micro"
	cfg.TempDir = t.TempDir()

	set, err := NewLoader(mapFetcher{cfg.GeometrySource: archive}, cfg).LoadGeometry(context.Background())
	require.NoError(t, err)
	assert.Len(t, set.Regions, 2)
}

func TestGeometryFormat(t *testing.T) {
	l := NewLoader(mapFetcher{}, Config{})
	zipMagic := []byte("PK\x03\x04rest")

	assert.Equal(t, FormatShapefile, l.geometryFormat("/data/BR_Micro_2022.ZIP", nil))
	assert.Equal(t, FormatGeoJSON, l.geometryFormat("https://x/micro.geojson?raw=1", zipMagic))
	assert.Equal(t, FormatShapefile, l.geometryFormat("https://x/download", zipMagic))
	assert.Equal(t, FormatGeoJSON, l.geometryFormat("https://x/download", []byte("{")))

	forced := NewLoader(mapFetcher{}, Config{GeometryFormat: FormatGeoJSON})
	assert.Equal(t, FormatGeoJSON, forced.geometryFormat("micro.zip", zipMagic))
}
