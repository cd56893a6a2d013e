package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/iqm-atlas/internal/model"
	"github.com/sells-group/iqm-atlas/internal/pipeline"
)

type handlers struct {
	dash Dashboard
}

// datasetSummary is the public view of a dataset snapshot.
type datasetSummary struct {
	*model.Dataset
	RegionCount int `json:"regions"`
}

func summarize(ds *model.Dataset) datasetSummary {
	return datasetSummary{Dataset: ds, RegionCount: len(ds.Regions)}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) dataset(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dash.Dataset(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(ds))
}

func (h *handlers) refresh(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dash.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summarize(ds))
}

func (h *handlers) states(w http.ResponseWriter, r *http.Request) {
	states, err := h.dash.States(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"states": states})
}

func (h *handlers) regions(w http.ResponseWriter, r *http.Request) {
	names, err := h.dash.RegionNames(r.Context(), multi(r, "state"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"regions": names})
}

func (h *handlers) indicators(w http.ResponseWriter, r *http.Request) {
	inds, err := h.dash.Indicators(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"indicators": inds})
}

func (h *handlers) qualification(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rec, ok, err := h.dash.Qualification(r.Context(), code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no qualification record for region " + code, Kind: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	v, err := h.dash.View(r.Context(), selection(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *handlers) viewMap(w http.ResponseWriter, r *http.Request) {
	v, err := h.dash.View(r.Context(), selection(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSONType(w, "application/geo+json", http.StatusOK, v.Features)
}

func (h *handlers) viewCSV(w http.ResponseWriter, r *http.Request) {
	v, err := h.dash.View(r.Context(), selection(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := pipeline.WriteCSV(&buf, v.Table, h.dash.Columns().Name); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="iqm-ranking.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *handlers) top(w http.ResponseWriter, r *http.Request) {
	indicator, limit := h.dash.TopDefaults()
	if v := r.URL.Query().Get("indicator"); v != "" {
		indicator = v
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, &model.InvalidSelectionError{Reason: "limit must be an integer"})
			return
		}
		limit = n
	}

	table, err := h.dash.Top(r.Context(), indicator, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func selection(r *http.Request) model.Selection {
	return model.Selection{
		States:    multi(r, "state"),
		Regions:   multi(r, "region"),
		Indicator: r.URL.Query().Get("indicator"),
	}
}

// multi returns every value of a repeated query parameter. Region names can
// contain commas, so values are not split.
func multi(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
