package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sells-group/iqm-atlas/internal/model"
)

type errorBody struct {
	Error   string   `json:"error"`
	Kind    string   `json:"kind"`
	Source  string   `json:"source,omitempty"`
	Field   string   `json:"field,omitempty"`
	Allowed []string `json:"allowed,omitempty"`
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		unavailable *model.SourceUnavailableError
		format      *model.SourceFormatError
		cfg         *model.ConfigurationError
	)
	switch {
	case model.IsSelectionError(err):
		return http.StatusBadRequest
	case errors.As(err, &cfg):
		return http.StatusInternalServerError
	case errors.As(err, &format):
		return http.StatusUnprocessableEntity
	case errors.As(err, &unavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorPayload(err error) errorBody {
	body := errorBody{Error: err.Error(), Kind: model.ErrorKind(err)}

	var (
		unavailable *model.SourceUnavailableError
		format      *model.SourceFormatError
		cfg         *model.ConfigurationError
		ind         *model.InvalidIndicatorError
	)
	switch {
	case errors.As(err, &ind):
		body.Field = ind.Indicator
		body.Allowed = ind.Allowed
	case errors.As(err, &cfg):
		body.Source = cfg.Dataset
		body.Field = cfg.Column
	case errors.As(err, &format):
		body.Source = format.Source
		body.Field = format.Artifact
	case errors.As(err, &unavailable):
		body.Source = unavailable.Source
	}
	return body
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, errorPayload(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeJSONType(w, "application/json", status, v)
}

func writeJSONType(w http.ResponseWriter, contentType string, status int, v any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: encode response", zap.Error(err))
	}
}
