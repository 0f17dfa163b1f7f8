package errors

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFromResponse_ErrorDetailsShape(t *testing.T) {
	resp := fakeResponse(http.StatusBadRequest, `{"error":"invalid check-in","details":"tone is required"}`)

	apiErr := FromResponse(resp)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid check-in", apiErr.Message)
	assert.Equal(t, "tone is required", apiErr.Details)
}

func TestFromResponse_MessageShape(t *testing.T) {
	resp := fakeResponse(http.StatusNotFound, `{"message":"conversation not found"}`)

	apiErr := FromResponse(resp)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "conversation not found", apiErr.Message)
}

func TestFromResponse_UnstructuredBody(t *testing.T) {
	resp := fakeResponse(http.StatusBadGateway, "upstream exploded")

	apiErr := FromResponse(resp)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestFromResponse_EmptyBody(t *testing.T) {
	resp := fakeResponse(http.StatusUnauthorized, "")

	apiErr := FromResponse(resp)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

func TestStatusOf(t *testing.T) {
	apiErr := &APIError{Status: http.StatusForbidden, Message: "forbidden"}
	wrapped := fmt.Errorf("call failed: %w", apiErr)

	assert.Equal(t, http.StatusForbidden, StatusOf(wrapped))
	assert.Equal(t, 0, StatusOf(errors.New("connection refused")))
	assert.Equal(t, 0, StatusOf(nil))
}

func TestIsUnauthorized(t *testing.T) {
	assert.True(t, IsUnauthorized(http.StatusUnauthorized))
	assert.True(t, IsUnauthorized(http.StatusForbidden))
	assert.False(t, IsUnauthorized(http.StatusBadRequest))
	assert.False(t, IsUnauthorized(http.StatusOK))
}

func TestIsAuthRejection(t *testing.T) {
	assert.True(t, IsAuthRejection(http.StatusBadRequest))
	assert.True(t, IsAuthRejection(http.StatusUnauthorized))
	assert.True(t, IsAuthRejection(http.StatusForbidden))
	assert.False(t, IsAuthRejection(http.StatusInternalServerError))
	assert.False(t, IsAuthRejection(http.StatusServiceUnavailable))
}

func TestIsNetwork(t *testing.T) {
	assert.True(t, IsNetwork(errors.New("dial tcp: connection refused")))
	assert.False(t, IsNetwork(nil))

	apiErr := &APIError{Status: http.StatusUnauthorized, Message: "unauthorized"}
	assert.False(t, IsNetwork(fmt.Errorf("refresh: %w", apiErr)))
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "load session")
	require.Error(t, wrapped)
	assert.True(t, errors.Is(wrapped, base))
	assert.Equal(t, "load session: boom", wrapped.Error())
}
