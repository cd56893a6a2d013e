package pipeline

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// States lists the distinct states of regions in Portuguese collation order.
func States(regions []model.JoinedRegion) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range regions {
		s := model.NormalizeState(r.State)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sortPortuguese(out)
	return out
}

// RegionNames lists the distinct names of regions in the given states, in
// Portuguese collation order.
func RegionNames(regions []model.JoinedRegion, states []string) ([]string, error) {
	want := stateSet(states)
	if len(want) == 0 {
		return nil, &model.InvalidSelectionError{Reason: "at least one state must be selected"}
	}

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range regions {
		if _, ok := want[model.NormalizeState(r.State)]; !ok {
			continue
		}
		name := model.NormalizeName(r.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sortPortuguese(out)
	return out, nil
}

// Collators are not safe for concurrent use; each call builds its own.
func sortPortuguese(s []string) {
	collate.New(language.BrazilianPortuguese, collate.IgnoreCase).SortStrings(s)
}
