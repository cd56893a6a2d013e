package pipeline

import (
	"github.com/sells-group/iqm-atlas/internal/model"
)

// View is everything the dashboard renders for one selection.
type View struct {
	Selection model.Selection    `json:"selection"`
	Ranked    []RankedRegion     `json:"-"`
	Table     Table              `json:"table"`
	Features  *FeatureCollection `json:"features"`
}

// BuildView runs filter, rank and projection for sel over the joined regions.
func BuildView(regions []model.JoinedRegion, indicators []string, sel model.Selection) (*View, error) {
	filtered, err := Filter(regions, sel, indicators)
	if err != nil {
		return nil, err
	}

	ranked := Rank(filtered, sel.Indicator)
	fc, err := NewFeatureCollection(ranked, sel.Indicator)
	if err != nil {
		return nil, err
	}

	return &View{
		Selection: sel,
		Ranked:    ranked,
		Table:     NewTable(ranked, sel.Indicator, indicators),
		Features:  fc,
	}, nil
}
