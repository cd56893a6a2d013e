package pipeline

import (
	"sort"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// RankedRegion is a region in ranking order. Rank is 1-based; 0 means the
// region has no numeric value for the indicator and Value is nil.
type RankedRegion struct {
	model.JoinedRegion
	Rank  int      `json:"rank"`
	Value *float64 `json:"value"`
}

// Rank orders regions by indicator, descending. Ties keep input order. Regions
// without a value for the indicator follow the ranked ones, in input order,
// with Rank 0.
func Rank(regions []model.JoinedRegion, indicator string) []RankedRegion {
	ranked := make([]RankedRegion, 0, len(regions))
	var missing []RankedRegion

	for _, r := range regions {
		if v, ok := r.Indicator(indicator); ok {
			ranked = append(ranked, RankedRegion{JoinedRegion: r, Value: &v})
			continue
		}
		missing = append(missing, RankedRegion{JoinedRegion: r})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Value > *ranked[j].Value
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return append(ranked, missing...)
}

// Top ranks every region nationally and returns the first n that have a
// value for indicator.
func Top(regions []model.JoinedRegion, indicator string, indicators []string, n int) ([]RankedRegion, error) {
	if n <= 0 {
		return nil, &model.InvalidSelectionError{Reason: "limit must be positive"}
	}
	if err := ValidateIndicator(indicator, indicators); err != nil {
		return nil, err
	}

	all := Rank(regions, indicator)
	out := make([]RankedRegion, 0, min(n, len(all)))
	for _, r := range all {
		if r.Rank == 0 || len(out) == n {
			break
		}
		out = append(out, r)
	}
	return out, nil
}
