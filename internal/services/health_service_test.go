package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investlens/internal/config"
	"investlens/internal/infrastructure"
	"investlens/internal/shared/testutil"
	"investlens/pkg/contracts/domain"
)

type stubDatasetState struct {
	loaded  bool
	summary domain.DatasetSummary
}

func (s stubDatasetState) Loaded() bool { return s.loaded }

func (s stubDatasetState) Summary() (domain.DatasetSummary, error) {
	if !s.loaded {
		return domain.DatasetSummary{}, ErrDatasetNotLoaded
	}
	return s.summary, nil
}

func (s stubDatasetState) SourceName() string { return "investments.xlsx" }

func TestHealthService_ReadinessCheck(t *testing.T) {
	reportFile := filepath.Join(t.TempDir(), "report.docx")
	require.NoError(t, os.WriteFile(reportFile, []byte("doc"), 0644))

	hub := &MockWebSocketHub{}
	hub.On("ClientCount").Return(2)

	tests := []struct {
		name        string
		dataset     DatasetState
		paths       *config.Paths
		wantStatus  string
		wantDataset string
		wantReport  string
	}{
		{
			name:        "loaded",
			dataset:     stubDatasetState{loaded: true, summary: domain.DatasetSummary{Records: 4, LoadedAt: time.Now()}},
			paths:       &config.Paths{ReportFile: reportFile},
			wantStatus:  "ready",
			wantDataset: "ready",
			wantReport:  "ready",
		},
		{
			name:        "dataset missing",
			dataset:     stubDatasetState{},
			paths:       &config.Paths{ReportFile: reportFile},
			wantStatus:  "not_ready",
			wantDataset: "not_ready",
			wantReport:  "ready",
		},
		{
			name:        "report missing does not gate readiness",
			dataset:     stubDatasetState{loaded: true},
			paths:       &config.Paths{ReportFile: filepath.Join(t.TempDir(), "none.docx")},
			wantStatus:  "ready",
			wantDataset: "ready",
			wantReport:  "missing",
		},
		{
			name:        "no dataset service",
			wantStatus:  "not_ready",
			wantDataset: "not_ready",
			wantReport:  "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService("1.2.3", "", tt.dataset, hub, tt.paths, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, "1.2.3", status.Version)
			assert.Equal(t, tt.wantDataset, status.Services["dataset"].(ServiceHealth).Status)
			assert.Equal(t, tt.wantReport, status.Services["report"].(ServiceHealth).Status)

			ws := status.Services["websocket"].(ServiceHealth)
			assert.Equal(t, "ready", ws.Status)
			assert.Equal(t, "2 clients connected", ws.Message)
		})
	}
}

func TestHealthService_HealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", "", stubDatasetState{loaded: true, summary: domain.DatasetSummary{Records: 7}}, nil, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	dataset := status.Services["dataset"].(ServiceHealth)
	assert.Equal(t, "7 records from investments.xlsx", dataset.Message)
}

func TestHealthService_LivenessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", "", nil, nil, nil, logger)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)

	stats, ok := status.Runtime.(infrastructure.RuntimeStats)
	require.True(t, ok)
	assert.Positive(t, stats.Goroutines)
}

func TestHealthService_Version(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", "2025-06-01T00:00:00Z", nil, nil, nil, logger)

	v := hs.Version()
	assert.Equal(t, config.AppName, v["name"])
	assert.Equal(t, config.AppVendor, v["vendor"])
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "2025-06-01T00:00:00Z", v["build_time"])
	assert.Contains(t, v, "go_version")
	assert.Equal(t, "v1", v["api_version"])

	testutil.AssertLogAttr(t, handler, "version", "1.2.3")
}
