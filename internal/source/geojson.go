package source

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// rawFeature keeps geometry undecoded so that go-geom does the parsing, and
// properties decoded with UseNumber so codes keep their literal digits.
type rawFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

// DecodeGeoJSON parses a GeoJSON FeatureCollection into a GeometrySet.
func DecodeGeoJSON(src string, data []byte, fields GeometryFields) (*model.GeometrySet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fc rawCollection
	if err := dec.Decode(&fc); err != nil {
		return nil, &model.SourceFormatError{Source: src, Artifact: "GeoJSON document", Err: err}
	}
	if fc.Type != "FeatureCollection" {
		return nil, &model.SourceFormatError{
			Source:   src,
			Artifact: "GeoJSON FeatureCollection",
			Err:      eris.Errorf("top-level type is %q", fc.Type),
		}
	}

	set := &model.GeometrySet{Source: src, Regions: make([]model.RegionGeometry, 0, len(fc.Features))}
	seen := make(map[string]struct{})

	for i, f := range fc.Features {
		g, err := decodeGeometry(f.Geometry)
		if err != nil {
			return nil, &model.SourceFormatError{
				Source:   src,
				Artifact: "feature geometry",
				Err:      eris.Wrapf(err, "feature %d", i),
			}
		}

		for _, k := range sortedKeys(f.Properties) {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				set.Fields = append(set.Fields, k)
			}
		}

		set.Regions = append(set.Regions, fields.region(f.Properties, g))
	}

	return set, nil
}

func decodeGeometry(raw json.RawMessage) (geom.T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var g geom.T
	if err := geojson.Unmarshal(trimmed, &g); err != nil {
		return nil, err
	}
	return g, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// propertyString renders a scalar property for display fields.
func propertyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}
