package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/iqm-atlas/internal/model"
	"github.com/sells-group/iqm-atlas/internal/pipeline"
)

// Output formats for ranking tables.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
)

// writeRanking renders a ranking table in the requested format.
func writeRanking(w io.Writer, t pipeline.Table, format, nameHeader string) error {
	switch format {
	case formatTable, "":
		formatRankingTable(w, t, nameHeader)
		return nil
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(t), "encode json")
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "encode yaml")
	case formatCSV:
		return pipeline.WriteCSV(w, t, nameHeader)
	default:
		return eris.Errorf("unknown format %q (want table, json, yaml or csv)", format)
	}
}

func formatRankingTable(out io.Writer, t pipeline.Table, nameHeader string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "RANK\t%s\tUF\tCODE\t%s\n", nameHeader, t.Indicator)
	_, _ = fmt.Fprintln(w, "----\t----\t--\t----\t-----")

	for _, r := range t.Rows {
		rank, value := "-", "-"
		if r.Rank > 0 {
			rank = strconv.Itoa(r.Rank)
		}
		if r.Value != nil {
			value = pipeline.FormatValue(*r.Value)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rank, r.Name, r.State, r.Code, value)
	}
	_ = w.Flush()
}

func formatJoinStats(out io.Writer, ds *model.Dataset) {
	s := ds.Stats
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Dataset:\t%s\n", ds.ID)
	_, _ = fmt.Fprintf(w, "Geometry:\t%s\n", ds.GeometrySource)
	_, _ = fmt.Fprintf(w, "Workbook:\t%s\n", ds.WorkbookSource)
	_, _ = fmt.Fprintf(w, "Indicators:\t%d\n", len(ds.Indicators))
	_, _ = fmt.Fprintf(w, "Ranking rows:\t%d\n", s.RankingRows)
	_, _ = fmt.Fprintf(w, "Geometry features:\t%d\n", s.GeometryFeatures)
	_, _ = fmt.Fprintf(w, "Joined:\t%d\n", s.Joined)
	_, _ = fmt.Fprintf(w, "  Unmatched ranking:\t%d\n", s.UnmatchedRanking)
	_, _ = fmt.Fprintf(w, "  Unmatched geometry:\t%d\n", s.UnmatchedGeometry)
	_, _ = fmt.Fprintf(w, "  Duplicate ranking codes:\t%d\n", s.DuplicateRankingCodes)
	_, _ = fmt.Fprintf(w, "  Duplicate geometry codes:\t%d\n", s.DuplicateGeometryCodes)
	_, _ = fmt.Fprintf(w, "Qualification records:\t%d\n", len(ds.Qualification))
	_ = w.Flush()
}
