package model

// Sheet is a worksheet read as a header row followed by data rows.
type Sheet struct {
	Name   string     `json:"name"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// ColumnIndex returns the position of the header cell equal to name after
// trimming and NFC normalization, or -1.
func (s *Sheet) ColumnIndex(name string) int {
	want := NormalizeName(name)
	for i, h := range s.Header {
		if NormalizeName(h) == want {
			return i
		}
	}
	return -1
}

// Cell returns row[i] or "" when the row is short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Workbook is the tabular source: the sheets that were requested and found.
type Workbook struct {
	Source string            `json:"source"`
	Sheets map[string]*Sheet `json:"sheets"`
}

// Sheet returns the named sheet, nil when the workbook lacks it.
func (w *Workbook) Sheet(name string) *Sheet {
	if w == nil || w.Sheets == nil {
		return nil
	}
	return w.Sheets[name]
}
