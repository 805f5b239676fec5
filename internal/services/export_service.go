package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/plot/vg"

	"investlens/internal/charts"
	"investlens/internal/exporter"
	"investlens/internal/infrastructure"
	"investlens/pkg/contracts/domain"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
	FormatPNG  = "png"
)

// ViewSource computes the views of a selection
type ViewSource interface {
	Views(ctx context.Context, params domain.FilterParams) (*domain.ViewSet, string, error)
}

// ExportService renders views as workbooks, CSV files and chart images
type ExportService struct {
	views   ViewSource
	metrics *infrastructure.Metrics
	logger  *slog.Logger
}

// NewExportService creates an export service. metrics may be nil.
func NewExportService(views ViewSource, metrics *infrastructure.Metrics, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		views:   views,
		metrics: metrics,
		logger:  logger.With(slog.String("service", "export")),
	}
}

// Export writes every view of params to w in format (xlsx or csv)
func (s *ExportService) Export(ctx context.Context, format string, params domain.FilterParams, w io.Writer) error {
	vs, _, err := s.views.Views(ctx, params)
	if err != nil {
		return err
	}
	tables := exporter.ViewTables(vs)

	switch format {
	case FormatXLSX:
		err = exporter.WriteXLSX(w, tables)
	case FormatCSV:
		err = exporter.WriteCSV(w, tables, exporter.WriteOptions{BOMPrefix: true, SectionMarkers: true})
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "export failed",
			slog.String("format", format),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to export %s: %w", format, err)
	}

	s.metrics.RecordExport(ctx, format)
	return nil
}

// Chart renders the named chart for params as a PNG. Zero sizes use the
// chart defaults.
func (s *ExportService) Chart(ctx context.Context, name string, params domain.FilterParams, w io.Writer, width, height vg.Length) error {
	if !IsChartName(name) {
		return fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
	vs, _, err := s.views.Views(ctx, params)
	if err != nil {
		return err
	}

	if err := charts.WritePNG(w, name, vs, width, height); err != nil {
		if errors.Is(err, charts.ErrUnknownChart) {
			return fmt.Errorf("%w: %q", ErrUnknownChart, name)
		}
		return err
	}
	s.metrics.RecordExport(ctx, FormatPNG)
	return nil
}

// IsChartName reports whether name is a renderable chart
func IsChartName(name string) bool {
	for _, n := range charts.Names() {
		if n == name {
			return true
		}
	}
	return false
}
