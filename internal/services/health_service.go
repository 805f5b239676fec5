package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"investlens/internal/config"
	"investlens/internal/infrastructure"
	"investlens/pkg/contracts"
	"investlens/pkg/contracts/domain"
)

// DatasetState is what the health checks need to know about the dataset
type DatasetState interface {
	Loaded() bool
	Summary() (domain.DatasetSummary, error)
	SourceName() string
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	dataset   DatasetState
	hub       ClientCounter
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   interface{}            `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. hub and paths may be nil.
func NewHealthService(version, buildTime string, dataset DatasetState, hub ClientCounter, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		dataset:   dataset,
		hub:       hub,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"dataset": hs.checkDatasetHealth(),
		},
	}

	hs.logger.DebugContext(ctx, "HealthCheck: completed",
		slog.String("status", status.Status),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return status
}

// ReadinessCheck is ready once a dataset snapshot is loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]interface{}{
			"dataset":   hs.checkDatasetHealth(),
			"websocket": hs.checkWebSocketHealth(),
			"report":    hs.checkReportHealth(),
		},
	}

	// The report download is optional and does not gate readiness.
	if sh := status.Services["dataset"].(ServiceHealth); sh.Status != "ready" {
		status.Status = "not_ready"
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready",
			slog.Any("services", status.Services))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime:   infrastructure.CollectRuntimeStats(hs.startTime),
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"name":         config.AppName,
		"vendor":       config.AppVendor,
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	info := contracts.GetVersionInfo()
	result["git_commit"] = info.GitCommit
	result["data_format"] = info.DataFormat
	result["api_version"] = info.APIVersion
	return result
}

func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	if hs.dataset == nil || !hs.dataset.Loaded() {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "dataset not loaded",
		}
	}

	summary, err := hs.dataset.Summary()
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: err.Error(),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d records from %s", summary.Records, hs.dataset.SourceName()),
		Uptime:  time.Since(summary.LoadedAt).Round(time.Second).String(),
	}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "disabled"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d clients connected", hs.hub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkReportHealth() ServiceHealth {
	if hs.paths == nil || hs.paths.ReportFile == "" {
		return ServiceHealth{Status: "disabled"}
	}
	if !config.FileExists(hs.paths.ReportFile) {
		return ServiceHealth{
			Status:  "missing",
			Message: "report file not found",
		}
	}
	return ServiceHealth{Status: "ready"}
}
