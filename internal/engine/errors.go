package engine

import (
	"context"
	"errors"
	"strings"
)

// Error taxonomy. Per-person failures wrap one of these so callers and
// metrics can tell them apart.
var (
	ErrMissingFeederData   = errors.New("missing feeder data")
	ErrInvalidNumericInput = errors.New("invalid numeric input")
	ErrPersistence         = errors.New("persistence failure")
	ErrSchemaDrift         = errors.New("schema drift")
	ErrUnknownPerson       = errors.New("unknown person")
)

// Error type labels used for metrics.
const (
	ErrTypeMissingFeeder = "missing_feeder_data"
	ErrTypeInvalidNumber = "invalid_numeric_input"
	ErrTypePersistence   = "persistence"
	ErrTypeSchemaDrift   = "schema_drift"
	ErrTypeUnknownPerson = "unknown_person"
	ErrTypeTimeout       = "timeout"
	ErrTypeCancelled     = "cancelled"
	ErrTypeUnknown       = "unknown"
)

// ClassifyError returns the metric label for err, or "" for nil.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTypeTimeout
	case errors.Is(err, context.Canceled):
		return ErrTypeCancelled
	case errors.Is(err, ErrMissingFeederData):
		return ErrTypeMissingFeeder
	case errors.Is(err, ErrInvalidNumericInput):
		return ErrTypeInvalidNumber
	case errors.Is(err, ErrSchemaDrift):
		return ErrTypeSchemaDrift
	case errors.Is(err, ErrPersistence):
		return ErrTypePersistence
	case errors.Is(err, ErrUnknownPerson):
		return ErrTypeUnknownPerson
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "sql") ||
		strings.Contains(lower, "database") ||
		strings.Contains(lower, "constraint") {
		return ErrTypePersistence
	}
	if strings.Contains(lower, "decode") || strings.Contains(lower, "unmarshal") {
		return ErrTypeSchemaDrift
	}
	return ErrTypeUnknown
}
