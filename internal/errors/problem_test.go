package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeUnknownView, "Not Found", "unknown view", "/api/dashboard/views/x").
		WithExtension("trace_id", "abc").
		WithExtension("type", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypeUnknownView, got["type"], "standard members win over extensions")
	assert.Equal(t, "Not Found", got["title"])
	assert.Equal(t, float64(404), got["status"])
	assert.Equal(t, "unknown view", got["detail"])
	assert.Equal(t, "/api/dashboard/views/x", got["instance"])
	assert.Equal(t, "abc", got["trace_id"])
}

func TestProblemDetails_OmitsEmpty(t *testing.T) {
	data, err := json.Marshal(NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal", "", ""))
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotContains(t, got, "detail")
	assert.NotContains(t, got, "instance")
}

func TestProblemDetails_Write(t *testing.T) {
	w := httptest.NewRecorder()
	ProblemFromStatus(http.StatusTooManyRequests, "slow down", "/api/dataset").Write(w)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ProblemContentType, w.Header().Get("Content-Type"))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, TypeRateLimit, got["type"])
	assert.Equal(t, "Too Many Requests", got["title"])
}

func TestProblemFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, TypeValidation},
		{http.StatusNotFound, TypeNotFound},
		{http.StatusUnprocessableEntity, TypeSchema},
		{http.StatusServiceUnavailable, TypeServiceDown},
		{http.StatusGatewayTimeout, TypeTimeout},
		{http.StatusTeapot, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := ProblemFromStatus(tt.status, "", "")
			assert.Equal(t, tt.want, p.Type)
			assert.Equal(t, tt.status, p.Status)
		})
	}
}

func TestWithExtensionNilMap(t *testing.T) {
	p := &ProblemDetails{Status: 500}
	p.WithExtension("k", "v")
	assert.Equal(t, "v", p.Extensions["k"])
}
