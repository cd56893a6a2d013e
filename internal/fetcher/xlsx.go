package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/iqm-atlas/internal/model"
)

// ErrSheetNotFound is wrapped when a requested sheet is absent.
var ErrSheetNotFound = eris.New("xlsx: sheet not found")

// Workbook is an opened XLSX/XLSM workbook.
type Workbook struct {
	f *xlsx.File
}

// OpenWorkbook parses an in-memory XLSX/XLSM workbook.
func OpenWorkbook(data []byte) (*Workbook, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open workbook")
	}
	return &Workbook{f: f}, nil
}

// Sheet returns the named sheet. The first non-blank row becomes the header;
// fully blank rows are dropped. A missing sheet yields ErrSheetNotFound.
func (w *Workbook) Sheet(name string) (*model.Sheet, error) {
	sheet, err := getSheet(w.f, name)
	if err != nil {
		return nil, err
	}
	return toModelSheet(name, sheet), nil
}

// SheetNames lists the sheets in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, 0, len(w.f.Sheets))
	for _, s := range w.f.Sheets {
		names = append(names, s.Name)
	}
	return names
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if sheet, ok := f.Sheet[name]; ok {
		return sheet, nil
	}
	// Sheet names are case-insensitive in Excel.
	for _, s := range f.Sheets {
		if strings.EqualFold(strings.TrimSpace(s.Name), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return nil, eris.Wrapf(ErrSheetNotFound, "sheet %q", name)
}

func toModelSheet(name string, sheet *xlsx.Sheet) *model.Sheet {
	out := &model.Sheet{Name: name}
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		if out.Header == nil {
			out.Header = cells
			continue
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// rowToStrings returns raw cell values. Formatted values would apply the
// sheet's number format ("72,50", "3.509") and break numeric parsing.
func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		if cell == nil {
			continue
		}
		cells[j] = cell.Value
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
