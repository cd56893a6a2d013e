package source

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/fetcher"
	"github.com/sells-group/iqm-atlas/internal/model"
)

// WorkbookSheets names the sheets read from the tabular source.
type WorkbookSheets struct {
	Ranking       string
	Qualification string
}

// DecodeWorkbook reads the ranking sheet (required) and the qualification
// sheet (optional; only feeds the detail lookup) from an XLSX/XLSM workbook.
func DecodeWorkbook(src string, data []byte, sheets WorkbookSheets) (*model.Workbook, error) {
	wb, err := fetcher.OpenWorkbook(data)
	if err != nil {
		return nil, &model.SourceFormatError{Source: src, Artifact: "XLSX workbook", Err: err}
	}

	ranking, err := wb.Sheet(sheets.Ranking)
	if err != nil {
		return nil, &model.SourceFormatError{Source: src, Artifact: "sheet " + quote(sheets.Ranking), Err: err}
	}

	out := &model.Workbook{
		Source: src,
		Sheets: map[string]*model.Sheet{sheets.Ranking: ranking},
	}

	if sheets.Qualification == "" {
		return out, nil
	}
	qual, err := wb.Sheet(sheets.Qualification)
	switch {
	case err == nil:
		out.Sheets[sheets.Qualification] = qual
	case eris.Is(err, fetcher.ErrSheetNotFound):
		zap.L().Warn("workbook has no qualification sheet; detail lookup disabled",
			zap.String("source", src),
			zap.String("sheet", sheets.Qualification),
			zap.Strings("available", wb.SheetNames()),
		)
	default:
		return nil, &model.SourceFormatError{Source: src, Artifact: "sheet " + quote(sheets.Qualification), Err: err}
	}

	return out, nil
}

func quote(s string) string {
	return `"` + s + `"`
}
