package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investlens/internal/config"
	"investlens/internal/shared/testutil"
)

func TestReportService_OpenReport(t *testing.T) {
	dir := t.TempDir()
	reportFile := filepath.Join(dir, "Investment Report.docx")
	require.NoError(t, os.WriteFile(reportFile, []byte("report body"), 0644))

	tests := []struct {
		name    string
		path    string
		wantErr error
	}{
		{name: "existing report", path: reportFile},
		{name: "missing report", path: filepath.Join(dir, "missing.docx"), wantErr: ErrReportNotFound},
		{name: "not configured", path: "", wantErr: ErrReportNotFound},
		{name: "directory", path: dir, wantErr: ErrReportNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			svc := NewReportService(tt.path, config.AboutConfig{}, logger)

			report, err := svc.OpenReport(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			defer report.File.Close()

			assert.Equal(t, "Investment Report.docx", report.Name)
			assert.Equal(t, int64(len("report body")), report.Size)
			body, err := io.ReadAll(report.File)
			require.NoError(t, err)
			assert.Equal(t, "report body", string(body))
		})
	}
}

func TestReportService_About(t *testing.T) {
	about := config.AboutConfig{
		Name:     "Ada",
		Headline: "Data analyst",
		Links:    map[string]string{"github": "https://github.com/ada"},
	}
	svc := NewReportService("", about, nil)
	assert.Equal(t, about, svc.About())
}
