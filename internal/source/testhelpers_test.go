package source

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// mapFetcher serves artifacts from memory keyed by id.
type mapFetcher map[string][]byte

func (m mapFetcher) Download(_ context.Context, id string) (io.ReadCloser, error) {
	data, ok := m[id]
	if !ok {
		return nil, eris.Errorf("not found: %s", id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func testFields() GeometryFields {
	return GeometryFields{Code: "CD_MICRO", Name: "NM_MICRO", State: "SIGLA_UF"}
}

func testSheets() WorkbookSheets {
	return WorkbookSheets{Ranking: "IQM_Ranking", Qualification: "IQM_Qualificação"}
}

func buildXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "iqm.xlsx")
	require.NoError(t, f.Save(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func buildZIP(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature",
     "properties": {"CD_MICRO": "35032", "NM_MICRO": "Campinas", "SIGLA_UF": "SP"},
     "geometry": {"type": "Polygon", "coordinates": [[[-47.2,-23.0],[-46.8,-23.0],[-46.8,-22.6],[-47.2,-22.6],[-47.2,-23.0]]]}},
    {"type": "Feature",
     "properties": {"CD_MICRO": 35063, "NM_MICRO": "Santos", "SIGLA_UF": "SP", "AREA_KM2": 2422.5},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[-46.5,-24.1],[-46.2,-24.1],[-46.2,-23.8],[-46.5,-23.8],[-46.5,-24.1]]]]}},
    {"type": "Feature",
     "properties": {"CD_MICRO": "33018", "NM_MICRO": "Rio de Janeiro", "SIGLA_UF": "RJ"},
     "geometry": null}
  ]
}`
