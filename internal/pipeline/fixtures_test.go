package pipeline

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/iqm-atlas/internal/model"
)

const (
	testIndicator = "IQM / 2025"
	codeField     = "CD_MICRO"
)

var testIndicators = []string{"IQM / 2025", "IQM-D", "IQM-C", "IQM-IU"}

func testColumns() Columns {
	return Columns{State: "UF", Name: "Microrregião", Code: "Código da Microrregião"}
}

func squareGeom(x, y, size float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x, y, x, y + size, x + size, y + size, x + size, y, x, y,
	}, []int{10})
}

func geometry(code any, name string, g geom.T) model.RegionGeometry {
	return model.RegionGeometry{
		Code:       code,
		Name:       name,
		Properties: map[string]any{codeField: code, "NM_MICRO": name},
		Geometry:   g,
	}
}

func geometrySet(regions ...model.RegionGeometry) *model.GeometrySet {
	return &model.GeometrySet{
		Source:  "micro.geojson",
		Fields:  []string{codeField, "NM_MICRO"},
		Regions: regions,
	}
}

func record(state, name string, code any, value float64) model.RankingRecord {
	return model.RankingRecord{
		State:      state,
		Name:       name,
		Code:       code,
		Indicators: map[string]float64{testIndicator: value},
	}
}

func rankingSet(records ...model.RankingRecord) *model.RankingSet {
	for i := range records {
		records[i].Row = i + 1
	}
	return &model.RankingSet{
		Source:     "IQM_Ranking",
		Columns:    []string{"UF", "Microrregião", "Código da Microrregião", testIndicator},
		CodeColumn: "Código da Microrregião",
		Indicators: []string{testIndicator},
		Records:    records,
	}
}

// scenarioRegions is the Campinas/Santos/Niterói example, already joined.
func scenarioRegions() ([]model.JoinedRegion, model.JoinStats, error) {
	ranking := rankingSet(
		record("SP", "Campinas", "3509", 72.50),
		record("SP", "Santos", "3548", 81.10),
		record("RJ", "Niterói", "3303", 65.00),
	)
	geo := geometrySet(
		geometry(3509, "Campinas", squareGeom(-47.2, -23.0, 0.4)),
		geometry("3548", "Santos", squareGeom(-46.5, -24.1, 0.3)),
		geometry(" 3303.0 ", "Niterói", squareGeom(-43.2, -22.95, 0.2)),
	)
	return Join(ranking, geo, codeField)
}
