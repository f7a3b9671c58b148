package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("cart item", "prod-1")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "prod-1")
}

func TestAppError_Unwrap(t *testing.T) {
	err := InvalidInput("quantity must be greater than 0")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	cause := errors.New("connection refused")
	unavail := Unavailable("cart service unreachable", cause)
	assert.True(t, errors.Is(unavail, ErrServiceUnavail))
	assert.True(t, errors.Is(unavail, cause))
}

func TestUnavailable_NilCause(t *testing.T) {
	err := Unavailable("wishlist service unreachable", nil)
	require.True(t, errors.Is(err, ErrServiceUnavail))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("cart", "u1"), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("add item: %w", Conflict("retry")), http.StatusConflict},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
