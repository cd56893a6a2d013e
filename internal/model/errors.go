package model

import (
	"errors"
	"fmt"
	"strings"
)

// SourceUnavailableError means a source could not be fetched or opened.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SourceFormatError means a source was read but its content is not the
// expected document, or a required sheet is missing. Artifact names what was
// wrong or missing.
type SourceFormatError struct {
	Source   string
	Artifact string
	Err      error
}

func (e *SourceFormatError) Error() string {
	msg := fmt.Sprintf("source format: %s: %s", e.Source, e.Artifact)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SourceFormatError) Unwrap() error {
	return e.Err
}

// ConfigurationError means a loaded record set lacks a column the join or
// filter needs.
type ConfigurationError struct {
	Dataset string
	Column  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s has no column %q", e.Dataset, e.Column)
}

// InvalidSelectionError means the user selection violates a precondition.
type InvalidSelectionError struct {
	Reason string
}

func (e *InvalidSelectionError) Error() string {
	return "invalid selection: " + e.Reason
}

// InvalidIndicatorError means the requested indicator is not offered.
type InvalidIndicatorError struct {
	Indicator string
	Allowed   []string
}

func (e *InvalidIndicatorError) Error() string {
	return fmt.Sprintf("invalid indicator %q (allowed: %s)", e.Indicator, strings.Join(e.Allowed, ", "))
}

// IsSelectionError reports whether err is a recoverable user-input error.
func IsSelectionError(err error) bool {
	var sel *InvalidSelectionError
	var ind *InvalidIndicatorError
	return errors.As(err, &sel) || errors.As(err, &ind)
}

// IsLoaderError reports whether err invalidates the current dataset.
func IsLoaderError(err error) bool {
	var unavailable *SourceUnavailableError
	var format *SourceFormatError
	var cfg *ConfigurationError
	return errors.As(err, &unavailable) || errors.As(err, &format) || errors.As(err, &cfg)
}

// ErrorKind returns a stable name for the taxonomy member in err's chain.
func ErrorKind(err error) string {
	var (
		unavailable *SourceUnavailableError
		format      *SourceFormatError
		cfg         *ConfigurationError
		sel         *InvalidSelectionError
		ind         *InvalidIndicatorError
	)
	switch {
	case errors.As(err, &sel):
		return "invalid_selection"
	case errors.As(err, &ind):
		return "invalid_indicator"
	case errors.As(err, &cfg):
		return "configuration"
	case errors.As(err, &format):
		return "source_format"
	case errors.As(err, &unavailable):
		return "source_unavailable"
	default:
		return "internal"
	}
}
