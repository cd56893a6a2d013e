package model

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Selection is the transient user input for one interaction.
type Selection struct {
	States    []string `json:"states"`
	Regions   []string `json:"regions"`
	Indicator string   `json:"indicator"`
}

// NormalizeState canonicalizes a UF code for comparison.
func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeName canonicalizes a region name for comparison. Workbooks saved
// on different platforms mix composed and decomposed accents ("Niterói").
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// JoinStats summarizes one join of the ranking and geometry sources.
type JoinStats struct {
	RankingRows            int `json:"ranking_rows"`
	GeometryFeatures       int `json:"geometry_features"`
	DuplicateGeometryCodes int `json:"duplicate_geometry_codes"`
	DuplicateRankingCodes  int `json:"duplicate_ranking_codes"`
	UnmatchedRanking       int `json:"unmatched_ranking"`
	UnmatchedGeometry      int `json:"unmatched_geometry"`
	Joined                 int `json:"joined"`
}

// Dataset is the memoized result of loading and joining both sources. It is
// never mutated after construction; a refresh builds a new one.
type Dataset struct {
	ID             string                         `json:"id"`
	LoadedAt       time.Time                      `json:"loaded_at"`
	GeometrySource string                         `json:"geometry_source"`
	WorkbookSource string                         `json:"workbook_source"`
	Indicators     []string                       `json:"indicators"`
	Regions        []JoinedRegion                 `json:"-"`
	Qualification  map[string]QualificationRecord `json:"-"`
	Stats          JoinStats                      `json:"stats"`
}
