package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved, absolute application paths
type Paths struct {
	BaseDir     string
	DataDir     string
	ExportsDir  string
	LogsDir     string
	ReportFile  string
	DatasetFile string
}

// ResolvePaths resolves the configured paths. Relative entries are joined to
// Paths.BaseDir, which defaults to the working directory.
func (c *Config) ResolvePaths() (*Paths, error) {
	base := c.Paths.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	paths := &Paths{
		BaseDir:    base,
		DataDir:    resolve(c.Paths.DataDir),
		ExportsDir: resolve(c.Paths.ExportsDir),
		LogsDir:    resolve(c.Paths.LogsDir),
		ReportFile: resolve(c.Paths.ReportFile),
	}
	if c.Dataset.Source == "file" {
		paths.DatasetFile = resolve(c.Dataset.Path)
	}
	return paths, nil
}

// EnsureDirectories creates the writable directories if they do not exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ExportsDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FileExists reports whether path names an existing regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Resolved application paths",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("data", p.DataDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("dataset", p.DatasetFile),
			slog.Bool("dataset_exists", p.DatasetFile != "" && FileExists(p.DatasetFile)),
			slog.String("report", p.ReportFile),
			slog.Bool("report_exists", FileExists(p.ReportFile)),
		),
	)
}
