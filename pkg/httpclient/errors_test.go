package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/StorefrontGo/pkg/errors"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_StructuredNotFound(t *testing.T) {
	resp := fakeResponse(http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"cart item missing"}}`)

	err := ParseResponseError(resp, "cart-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestParseResponseError_Unauthorized(t *testing.T) {
	resp := fakeResponse(http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"authentication required"}}`)

	err := ParseResponseError(resp, "cart-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestParseResponseError_ServerErrorIsUnavailable(t *testing.T) {
	resp := fakeResponse(http.StatusInternalServerError, `upstream exploded`)

	err := ParseResponseError(resp, "wishlist-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
	assert.Contains(t, err.Error(), "wishlist-service")
}

func TestParseResponseError_UnstructuredBadRequest(t *testing.T) {
	resp := fakeResponse(http.StatusBadRequest, `nope`)

	err := ParseResponseError(resp, "cart-service")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}
