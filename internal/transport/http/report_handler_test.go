package http

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"investlens/internal/config"
	apierrors "investlens/internal/errors"
	"investlens/internal/services"
)

func newReportRouter(t *testing.T, svc *mockReportService) http.Handler {
	t.Helper()
	h := NewReportHandler(svc, testLogger(t), testErrorHandler(t))
	r := chi.NewRouter()
	r.Get("/api/report", h.DownloadReport)
	r.Get("/api/about", h.About)
	return r
}

func TestReportHandler_DownloadReport(t *testing.T) {
	t.Run("serves the document unchanged", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "Investment Report.docx")
		require.NoError(t, os.WriteFile(path, []byte("report body"), 0644))
		f, err := os.Open(path)
		require.NoError(t, err)

		svc := &mockReportService{}
		svc.On("OpenReport", mock.Anything).Return(&services.ReportFile{
			File:    f,
			Name:    "Investment Report.docx",
			ModTime: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
			Size:    11,
		}, nil)

		rec := serve(t, newReportRouter(t, svc), http.MethodGet, "/api/report", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `attachment; filename="Investment Report.docx"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "report body", rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("Last-Modified"))
	})

	t.Run("missing report", func(t *testing.T) {
		svc := &mockReportService{}
		svc.On("OpenReport", mock.Anything).Return(nil, services.ErrReportNotFound)

		rec := serve(t, newReportRouter(t, svc), http.MethodGet, "/api/report", nil)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.CodeReportNotFound, decodeBody(t, rec)["error_code"])
	})

	t.Run("unreadable report", func(t *testing.T) {
		svc := &mockReportService{}
		svc.On("OpenReport", mock.Anything).Return(nil, os.ErrPermission)

		rec := serve(t, newReportRouter(t, svc), http.MethodGet, "/api/report", nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, apierrors.CodeFileSystem, decodeBody(t, rec)["error_code"])
	})
}

func TestReportHandler_About(t *testing.T) {
	svc := &mockReportService{}
	svc.On("About").Return(config.AboutConfig{
		Name:     "Ada",
		Headline: "Data analyst",
		Email:    "ada@example.com",
	})

	rec := serve(t, newReportRouter(t, svc), http.MethodGet, "/api/about", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Ada", body["name"])
	assert.Equal(t, "ada@example.com", body["email"])
}
