package pipeline

import (
	"slices"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// ValidateIndicator checks that indicator is one of the offered indicators.
func ValidateIndicator(indicator string, allowed []string) error {
	if indicator == "" || !slices.Contains(allowed, indicator) {
		return &model.InvalidIndicatorError{Indicator: indicator, Allowed: allowed}
	}
	return nil
}

// Filter returns the regions whose state is selected and whose name is
// selected, in input order. At least one state is required. With states but
// no region names the result is empty.
func Filter(regions []model.JoinedRegion, sel model.Selection, indicators []string) ([]model.JoinedRegion, error) {
	states := stateSet(sel.States)
	if len(states) == 0 {
		return nil, &model.InvalidSelectionError{Reason: "at least one state must be selected"}
	}
	if err := ValidateIndicator(sel.Indicator, indicators); err != nil {
		return nil, err
	}

	names := make(map[string]struct{}, len(sel.Regions))
	for _, n := range sel.Regions {
		if n = model.NormalizeName(n); n != "" {
			names[n] = struct{}{}
		}
	}

	out := make([]model.JoinedRegion, 0, len(names))
	if len(names) == 0 {
		return out, nil
	}
	for _, r := range regions {
		if _, ok := states[model.NormalizeState(r.State)]; !ok {
			continue
		}
		if _, ok := names[model.NormalizeName(r.Name)]; !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func stateSet(states []string) map[string]struct{} {
	set := make(map[string]struct{}, len(states))
	for _, s := range states {
		if s = model.NormalizeState(s); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}
