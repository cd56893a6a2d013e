package pipeline

import (
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// Columns names the ranking sheet columns the join and filters read.
type Columns struct {
	State string
	Name  string
	Code  string
}

// DecodeRanking reads the ranking sheet into records. The indicator set is
// the configured list intersected with the sheet header, in configured order.
func DecodeRanking(sheet *model.Sheet, cols Columns, indicators []string) (*model.RankingSet, error) {
	if sheet == nil {
		return nil, &model.ConfigurationError{Dataset: "ranking", Column: cols.Code}
	}

	stateIdx := sheet.ColumnIndex(cols.State)
	nameIdx := sheet.ColumnIndex(cols.Name)
	codeIdx := sheet.ColumnIndex(cols.Code)
	for _, c := range []struct {
		name string
		idx  int
	}{{cols.State, stateIdx}, {cols.Name, nameIdx}, {cols.Code, codeIdx}} {
		if c.idx < 0 {
			return nil, &model.ConfigurationError{Dataset: sheet.Name, Column: c.name}
		}
	}

	set := &model.RankingSet{
		Source:     sheet.Name,
		CodeColumn: model.NormalizeName(cols.Code),
	}
	for _, h := range sheet.Header {
		set.Columns = append(set.Columns, model.NormalizeName(h))
	}

	indicatorIdx := make(map[string]int, len(indicators))
	for _, ind := range indicators {
		if i := sheet.ColumnIndex(ind); i >= 0 {
			set.Indicators = append(set.Indicators, ind)
			indicatorIdx[ind] = i
		}
	}
	if len(set.Indicators) == 0 {
		return nil, &model.ConfigurationError{Dataset: sheet.Name, Column: strings.Join(indicators, ", ")}
	}
	if len(set.Indicators) < len(indicators) {
		zap.L().Warn("ranking sheet lacks some indicator columns",
			zap.String("sheet", sheet.Name),
			zap.Strings("configured", indicators),
			zap.Strings("found", set.Indicators),
		)
	}

	set.Records = make([]model.RankingRecord, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		rec := model.RankingRecord{
			Row:        i + 1,
			State:      model.NormalizeState(model.Cell(row, stateIdx)),
			Name:       model.NormalizeName(model.Cell(row, nameIdx)),
			Code:       model.Cell(row, codeIdx),
			Indicators: make(map[string]float64, len(set.Indicators)),
		}
		for _, ind := range set.Indicators {
			if v, ok := ParseIndicator(model.Cell(row, indicatorIdx[ind])); ok {
				rec.Indicators[ind] = v
			}
		}
		set.Records = append(set.Records, rec)
	}

	return set, nil
}

// ParseIndicator parses a sheet cell as a number. A lone comma is read as the
// decimal separator ("72,50"). Blank, non-numeric and non-finite values
// report false.
func ParseIndicator(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// DecodeQualification reads the detail sheet keyed by normalized code. A nil
// sheet yields an empty map. Rows without a usable code are skipped; a
// repeated code keeps the last row.
func DecodeQualification(sheet *model.Sheet, codeColumn string) (map[string]model.QualificationRecord, error) {
	out := make(map[string]model.QualificationRecord)
	if sheet == nil {
		return out, nil
	}

	codeIdx := sheet.ColumnIndex(codeColumn)
	if codeIdx < 0 {
		return nil, &model.ConfigurationError{Dataset: sheet.Name, Column: codeColumn}
	}

	for _, row := range sheet.Rows {
		code := NormalizeCode(model.Cell(row, codeIdx))
		if code == "" {
			continue
		}
		rec := model.QualificationRecord{Code: code, Fields: make([]model.Field, 0, len(sheet.Header))}
		for i, h := range sheet.Header {
			name := model.NormalizeName(h)
			if name == "" {
				continue
			}
			rec.Fields = append(rec.Fields, model.Field{Name: name, Value: strings.TrimSpace(model.Cell(row, i))})
		}
		out[code] = rec
	}
	return out, nil
}
