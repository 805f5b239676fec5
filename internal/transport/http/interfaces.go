package http

import (
	"context"
	"io"

	"gonum.org/v1/plot/vg"

	"investlens/internal/config"
	"investlens/internal/services"
	"investlens/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the handlers need
type DatasetServiceInterface interface {
	Summary() (domain.DatasetSummary, error)
	Options() (domain.SelectionOptions, error)
	Reload(ctx context.Context) (domain.DatasetSummary, error)
	Views(ctx context.Context, params domain.FilterParams) (*domain.ViewSet, string, error)
	View(ctx context.Context, name string, params domain.FilterParams) (interface{}, string, error)
}

// ExportServiceInterface renders views as downloadable files and images
type ExportServiceInterface interface {
	Export(ctx context.Context, format string, params domain.FilterParams, w io.Writer) error
	Chart(ctx context.Context, name string, params domain.FilterParams, w io.Writer, width, height vg.Length) error
}

// ReportServiceInterface serves the static report and profile
type ReportServiceInterface interface {
	OpenReport(ctx context.Context) (*services.ReportFile, error)
	About() config.AboutConfig
}

// HealthServiceInterface reports service health
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
