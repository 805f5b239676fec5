package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"investlens/internal/config"
	apierrors "investlens/internal/errors"
	"investlens/internal/services"
	"investlens/internal/shared/testutil"
	"investlens/pkg/contracts/domain"
)

type mockDatasetService struct {
	mock.Mock
}

func (m *mockDatasetService) Summary() (domain.DatasetSummary, error) {
	args := m.Called()
	return args.Get(0).(domain.DatasetSummary), args.Error(1)
}

func (m *mockDatasetService) Options() (domain.SelectionOptions, error) {
	args := m.Called()
	return args.Get(0).(domain.SelectionOptions), args.Error(1)
}

func (m *mockDatasetService) Reload(ctx context.Context) (domain.DatasetSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.DatasetSummary), args.Error(1)
}

func (m *mockDatasetService) Views(ctx context.Context, params domain.FilterParams) (*domain.ViewSet, string, error) {
	args := m.Called(ctx, params)
	vs, _ := args.Get(0).(*domain.ViewSet)
	return vs, args.String(1), args.Error(2)
}

func (m *mockDatasetService) View(ctx context.Context, name string, params domain.FilterParams) (interface{}, string, error) {
	args := m.Called(ctx, name, params)
	return args.Get(0), args.String(1), args.Error(2)
}

type mockExportService struct {
	mock.Mock
}

func (m *mockExportService) Export(ctx context.Context, format string, params domain.FilterParams, w io.Writer) error {
	args := m.Called(ctx, format, params, w)
	if body := args.String(0); body != "" {
		io.WriteString(w, body)
	}
	return args.Error(1)
}

func (m *mockExportService) Chart(ctx context.Context, name string, params domain.FilterParams, w io.Writer, width, height vg.Length) error {
	args := m.Called(ctx, name, params, w, width, height)
	if body := args.String(0); body != "" {
		io.WriteString(w, body)
	}
	return args.Error(1)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) OpenReport(ctx context.Context) (*services.ReportFile, error) {
	args := m.Called(ctx)
	rf, _ := args.Get(0).(*services.ReportFile)
	return rf, args.Error(1)
}

func (m *mockReportService) About() config.AboutConfig {
	return m.Called().Get(0).(config.AboutConfig)
}

type mockHealthService struct {
	mock.Mock
}

func (m *mockHealthService) HealthCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) ReadinessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) LivenessCheck(ctx context.Context) services.HealthStatus {
	return m.Called(ctx).Get(0).(services.HealthStatus)
}

func (m *mockHealthService) Version() map[string]interface{} {
	return m.Called().Get(0).(map[string]interface{})
}

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return logger
}

func testErrorHandler(t *testing.T) *apierrors.ErrorHandler {
	return apierrors.NewErrorHandler(testLogger(t), false)
}

func serve(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
