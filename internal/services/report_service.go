package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"investlens/internal/config"
)

// ReportFile is an opened static report ready to be served
type ReportFile struct {
	File    *os.File
	Name    string
	ModTime time.Time
	Size    int64
}

// ReportService serves the pre-built report document and the developer profile
type ReportService struct {
	reportPath string
	about      config.AboutConfig
	logger     *slog.Logger
}

// NewReportService creates a report service for the document at reportPath
func NewReportService(reportPath string, about config.AboutConfig, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		reportPath: reportPath,
		about:      about,
		logger:     logger.With(slog.String("service", "report")),
	}
}

// OpenReport opens the report document. The caller closes the file.
func (s *ReportService) OpenReport(ctx context.Context) (*ReportFile, error) {
	if s.reportPath == "" {
		return nil, ErrReportNotFound
	}

	f, err := os.Open(s.reportPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "report file not found", slog.String("path", s.reportPath))
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to open report: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat report: %w", err)
	}
	if info.IsDir() {
		f.Close()
		return nil, ErrReportNotFound
	}

	return &ReportFile{
		File:    f,
		Name:    filepath.Base(s.reportPath),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}, nil
}

// About returns the static developer profile
func (s *ReportService) About() config.AboutConfig {
	return s.about
}
