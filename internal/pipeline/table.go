package pipeline

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// displayPlaces is the rounding applied to every displayed indicator value.
const displayPlaces = 2

// TableRow is one line of the ranking table.
type TableRow struct {
	Rank       int                 `json:"rank"`
	Name       string              `json:"name"`
	State      string              `json:"state"`
	Code       string              `json:"code"`
	Value      *float64            `json:"value"`
	Indicators map[string]*float64 `json:"indicators,omitempty"`
}

// Table is the ranking table for one indicator.
type Table struct {
	Indicator string     `json:"indicator"`
	Rows      []TableRow `json:"rows"`
}

// NewTable projects ranked regions into display rows. Values are rounded to
// two decimals; indicators lists the columns copied into each row.
func NewTable(ranked []RankedRegion, indicator string, indicators []string) Table {
	t := Table{Indicator: indicator, Rows: make([]TableRow, 0, len(ranked))}
	for _, r := range ranked {
		row := TableRow{
			Rank:  r.Rank,
			Name:  r.Name,
			State: r.State,
			Code:  r.Code,
		}
		if r.Value != nil {
			row.Value = roundedPtr(*r.Value)
		}
		if len(indicators) > 0 {
			row.Indicators = make(map[string]*float64, len(indicators))
			for _, ind := range indicators {
				if v, ok := r.Indicator(ind); ok {
					row.Indicators[ind] = roundedPtr(v)
				} else {
					row.Indicators[ind] = nil
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Lookup finds the row for a region by name and state.
func (t Table) Lookup(name, state string) (TableRow, bool) {
	name = model.NormalizeName(name)
	state = model.NormalizeState(state)
	for _, r := range t.Rows {
		if model.NormalizeName(r.Name) == name && model.NormalizeState(r.State) == state {
			return r, true
		}
	}
	return TableRow{}, false
}

// WriteCSV writes the table as UTF-8 CSV with a region name column headed
// nameHeader and a value column headed by the indicator. Rows without a value
// get an empty cell.
func WriteCSV(w io.Writer, t Table, nameHeader string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{nameHeader, t.Indicator}); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	for _, r := range t.Rows {
		value := ""
		if r.Value != nil {
			value = FormatValue(*r.Value)
		}
		if err := cw.Write([]string{r.Name, value}); err != nil {
			return eris.Wrapf(err, "csv: write row %q", r.Name)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}

// Round rounds v half away from zero to two decimals.
func Round(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(displayPlaces).Float64()
	return f
}

// FormatValue renders v with exactly two decimals.
func FormatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(displayPlaces)
}

func roundedPtr(v float64) *float64 {
	r := Round(v)
	return &r
}
