package errors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsType(t *testing.T) {
	base := Validationf("strikes out of order")
	wrapped := Wrapf(Wrap(base, "butterfly"), "leg %d", 2)

	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "leg 2: butterfly: strikes out of order", wrapped.Error())
	assert.True(t, Is(wrapped, base))

	var appErr *AppError
	assert.True(t, As(wrapped, &appErr))
	assert.Equal(t, ErrorTypeValidation, appErr.Type)
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %d", 1))
	assert.NoError(t, WithType(nil, ErrorTypeInternal))
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"invalid input", InvalidInputf("bad %s", "spot"), ErrorTypeInvalidInput},
		{"data quality", DataQualityf("gaps"), ErrorTypeDataQuality},
		{"invariant", InternalInvariantf("grid %d", 8), ErrorTypeInternalInvariant},
		{"not found", NotFoundf("ticker %s", "XYZ"), ErrorTypeNotFound},
		{"unavailable", Unavailable(context.DeadlineExceeded, "quote feed"), ErrorTypeUnavailable},
		{"internal", Internal("boom"), ErrorTypeInternal},
		{"plain", context.Canceled, ErrorTypeUnknown},
		{"typed plain", WithType(context.Canceled, ErrorTypeUnavailable), ErrorTypeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestUnavailable_Unwraps(t *testing.T) {
	err := Unavailable(context.DeadlineExceeded, "rate curve")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "rate curve: context deadline exceeded", err.Error())
	assert.Equal(t, "unavailable", TypeOf(err).String())
}
