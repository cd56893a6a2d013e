package model

import (
	"slices"

	"github.com/twpayne/go-geom"
)

// RegionGeometry is one boundary feature from the geometry source. Code is
// kept in the representation the source used (json.Number, string, float64)
// and is only compared after normalization.
type RegionGeometry struct {
	Code       any            `json:"code"`
	Name       string         `json:"name"`
	State      string         `json:"state,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Geometry   geom.T         `json:"-"`
}

// GeometrySet is the decoded geometry source. Fields lists every attribute
// name seen across features, in first-seen order.
type GeometrySet struct {
	Source  string           `json:"source"`
	Fields  []string         `json:"fields"`
	Regions []RegionGeometry `json:"-"`
}

// HasField reports whether any feature carried the named attribute.
func (g *GeometrySet) HasField(name string) bool {
	return slices.Contains(g.Fields, name)
}

// Value returns the attribute of a feature, nil when absent.
func (r RegionGeometry) Value(field string) any {
	if r.Properties == nil {
		return nil
	}
	return r.Properties[field]
}

// RankingRecord is one row of the ranking sheet. Indicators holds only the
// values that parsed as numbers; a missing key means blank or non-numeric.
type RankingRecord struct {
	Row        int                `json:"row"`
	State      string             `json:"state"`
	Name       string             `json:"name"`
	Code       any                `json:"code"`
	Indicators map[string]float64 `json:"indicators"`
}

// Indicator returns the named value and whether it was numeric.
func (r RankingRecord) Indicator(name string) (float64, bool) {
	v, ok := r.Indicators[name]
	return v, ok
}

// RankingSet is the decoded ranking sheet plus the column names used to read
// it. Columns is the sheet header as found in the workbook.
type RankingSet struct {
	Source     string          `json:"source"`
	Columns    []string        `json:"columns"`
	CodeColumn string          `json:"code_column"`
	Indicators []string        `json:"indicators"`
	Records    []RankingRecord `json:"records"`
}

// HasColumn reports whether the ranking header contains name.
func (r *RankingSet) HasColumn(name string) bool {
	return slices.Contains(r.Columns, name)
}

// Field is one labelled cell of a qualification row.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// QualificationRecord is one row of the detail sheet, in column order.
type QualificationRecord struct {
	Code   string  `json:"code"`
	Fields []Field `json:"fields"`
}

// Get returns the value of the named field.
func (q QualificationRecord) Get(name string) (string, bool) {
	for _, f := range q.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// JoinedRegion combines a ranking row with the geometry sharing its
// normalized code.
type JoinedRegion struct {
	Code       string             `json:"code"`
	State      string             `json:"state"`
	Name       string             `json:"name"`
	Indicators map[string]float64 `json:"indicators"`
	Geometry   geom.T             `json:"-"`
}

// Indicator returns the named value and whether it was numeric.
func (j JoinedRegion) Indicator(name string) (float64, bool) {
	v, ok := j.Indicators[name]
	return v, ok
}
