package pipeline

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

// Feature is a GeoJSON feature carrying the selected indicator.
type Feature struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

// FeatureCollection is the map product for a view.
type FeatureCollection struct {
	Type     string    `json:"type"`
	BBox     []float64 `json:"bbox,omitempty"`
	Features []Feature `json:"features"`
}

var nullGeometry = json.RawMessage("null")

// NewFeatureCollection builds the map product from ranked regions. Each
// feature carries code, name, state, rank, the indicator name and its rounded
// value, plus a label point inside its largest polygon.
func NewFeatureCollection(ranked []RankedRegion, indicator string) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(ranked))}
	bounds := geom.NewBounds(geom.XY)
	var extended bool

	for _, r := range ranked {
		props := map[string]any{
			"code":      r.Code,
			"name":      r.Name,
			"state":     r.State,
			"rank":      r.Rank,
			"indicator": indicator,
			"value":     nil,
		}
		if r.Value != nil {
			props["value"] = Round(*r.Value)
		}

		raw := nullGeometry
		if r.Geometry != nil {
			b, err := geojson.Marshal(r.Geometry)
			if err != nil {
				return nil, eris.Wrapf(err, "geojson: encode region %s", r.Code)
			}
			raw = b
			if !r.Geometry.Bounds().IsEmpty() {
				bounds.Extend(r.Geometry)
				extended = true
			}
			if pt, ok := labelPoint(r.Geometry); ok {
				props["label_point"] = []float64{pt[0], pt[1]}
			}
		}

		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			ID:         r.Code,
			Geometry:   raw,
			Properties: props,
		})
	}

	if extended {
		fc.BBox = []float64{bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1)}
	}
	return fc, nil
}

// labelPoint returns the centroid of the largest polygon in g.
func labelPoint(g geom.T) (geom.Coord, bool) {
	var target geom.T
	switch t := g.(type) {
	case *geom.Polygon:
		target = t
	case *geom.MultiPolygon:
		var best *geom.Polygon
		for i := 0; i < t.NumPolygons(); i++ {
			p := t.Polygon(i)
			if best == nil || math.Abs(p.Area()) > math.Abs(best.Area()) {
				best = p
			}
		}
		if best == nil {
			return nil, false
		}
		target = best
	default:
		return nil, false
	}

	c, err := xy.Centroid(target)
	if err != nil || len(c) < 2 {
		return nil, false
	}
	return c, true
}
