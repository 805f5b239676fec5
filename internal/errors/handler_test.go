package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investlens/internal/infrastructure"
)

func newTestHandler(buf *bytes.Buffer, includeStack bool) *ErrorHandler {
	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}
	return NewErrorHandler(slog.New(slog.NewJSONHandler(w, nil)), includeStack)
}

func decodeProblem(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &got))
	return got
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"api error", ErrDatasetNotLoaded, http.StatusServiceUnavailable, TypeDatasetNotLoaded},
		{"wrapped api error", fmt.Errorf("views: %w", UnknownViewError("x", nil)), http.StatusNotFound, TypeUnknownView},
		{"schema app error", NewSchemaError("f.xlsx", []string{"DOB"}, nil), http.StatusUnprocessableEntity, TypeSchema},
		{"dataset app error", NewDatasetError("load failed", io.EOF), http.StatusBadGateway, TypeDatasetLoad},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
		{"storage app error", NewStorageError("failed to query dataset table", io.EOF), http.StatusBadGateway, TypeDatasetLoad},
		{"network app error", NewNetworkError("failed to read sheet range", io.EOF), http.StatusBadGateway, TypeDatasetLoad},
		{"parsing app error", NewParsingError("failed to parse dataset file", io.EOF), http.StatusUnprocessableEntity, TypeSchema},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(nil, false)
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/dashboard/views", nil)
			r = r.WithContext(infrastructure.WithTraceID(r.Context(), "trace-1"))

			h.HandleError(w, r, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			got := decodeProblem(t, w.Body.Bytes())
			assert.Equal(t, tt.wantType, got["type"])
			assert.Equal(t, "trace-1", got["trace_id"])
			assert.Equal(t, "/api/dashboard/views", got["instance"])
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(nil, false).HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, w.Body.Len())
}

func TestErrorHandler_LogLevel(t *testing.T) {
	var buf bytes.Buffer
	h := newTestHandler(&buf, false)
	r := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)

	h.HandleError(httptest.NewRecorder(), r, InvalidParameter("year", "abc", nil))
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	h.HandleError(httptest.NewRecorder(), r, fmt.Errorf("disk failure"))
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
	assert.Contains(t, buf.String(), "disk failure")
}

func TestErrorHandler_ProblemExtensions(t *testing.T) {
	h := newTestHandler(nil, false)
	r := httptest.NewRequest(http.MethodPost, "/api/dataset/reload", nil)

	schema := h.ErrorToProblem(NewSchemaError("invest.xlsx", []string{"DOB", "LAND"}, nil), r)
	assert.Equal(t, []string{"DOB", "LAND"}, schema.Extensions["missing_columns"])
	assert.Equal(t, "invest.xlsx", schema.Extensions["source"])

	api := h.ErrorToProblem(SchemaError("invest.xlsx", []string{"DOB"}), r)
	assert.Equal(t, CodeSchemaError, api.Extensions["error_code"])
	assert.NotNil(t, api.Extensions["details"])

	dataset := h.ErrorToProblem(NewDatasetError("load failed", fmt.Errorf("secret dsn")), r)
	assert.Equal(t, "load failed", dataset.Detail, "server-side causes are not echoed")

	validation := h.ErrorToProblem(NewAppError(ErrTypeValidation, "bad filter", fmt.Errorf("year")), r)
	assert.Equal(t, "bad filter: year", validation.Detail)

	plain := h.ErrorToProblem(fmt.Errorf("nil pointer"), r)
	assert.Equal(t, ErrInternalServer.Message, plain.Detail)
	assert.Equal(t, CodeInternal, plain.Extensions["error_code"])
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{"production", false},
		{"development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTestHandler(&buf, tt.includeStack)
			w := httptest.NewRecorder()

			h.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/views", nil), "nil map write")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, ProblemContentType, w.Header().Get("Content-Type"))
			assert.Contains(t, buf.String(), "panic recovered")

			got := decodeProblem(t, w.Body.Bytes())
			assert.Equal(t, CodeInternal, got["error_code"])
			_, hasPanic := got["panic"]
			assert.Equal(t, tt.includeStack, hasPanic)
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(nil, false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	notFound := decodeProblem(t, w.Body.Bytes())
	assert.Equal(t, TypeNotFound, notFound["type"])
	assert.Equal(t, CodeNotFound, notFound["error_code"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/api/dataset", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, decodeProblem(t, w.Body.Bytes())["detail"], "DELETE")
}

func TestErrorHandler_JSON(t *testing.T) {
	w := httptest.NewRecorder()
	newTestHandler(nil, false).JSON(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusAccepted, map[string]string{"ok": "yes"})
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"ok":"yes"}`, w.Body.String())
}

func TestErrorHandlerConcurrency(t *testing.T) {
	h := newTestHandler(nil, false)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), UnknownViewError(fmt.Sprintf("view %d", i), nil))
			assert.Equal(t, http.StatusNotFound, w.Code)
		}(i)
	}
	wg.Wait()
}
