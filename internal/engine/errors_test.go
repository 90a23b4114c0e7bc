package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("read: %w", ErrPersistence), ErrTypePersistence},
		{fmt.Errorf("wrap: %w", fmt.Errorf("%w: bad doc", ErrSchemaDrift)), ErrTypeSchemaDrift},
		{ErrMissingFeederData, ErrTypeMissingFeeder},
		{fmt.Errorf("slot 3: %w", ErrInvalidNumericInput), ErrTypeInvalidNumber},
		{fmt.Errorf("%w: x", ErrUnknownPerson), ErrTypeUnknownPerson},
		{fmt.Errorf("person p1: %w", context.DeadlineExceeded), ErrTypeTimeout},
		{context.Canceled, ErrTypeCancelled},
		{errors.New("sql: database is locked"), ErrTypePersistence},
		{errors.New("decode state p1: unexpected end of JSON input"), ErrTypeSchemaDrift},
		{errors.New("something else"), ErrTypeUnknown},
	}
	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.want {
			t.Errorf("ClassifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
