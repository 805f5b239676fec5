package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"investlens/internal/config"
)

// utf8BOM helps Excel recognize UTF-8 CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool
	// SectionMarkers writes a "[name]" row before each table and a blank row
	// after it. Without markers only a single table may be written.
	SectionMarkers bool
}

// WriteCSV writes tables to w
func WriteCSV(w io.Writer, tables []Table, options WriteOptions) error {
	if !options.SectionMarkers && len(tables) > 1 {
		return fmt.Errorf("cannot write %d tables without section markers", len(tables))
	}

	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	for i, t := range tables {
		if options.SectionMarkers {
			if i > 0 {
				if err := writer.Write([]string{}); err != nil {
					return fmt.Errorf("failed to write separator: %w", err)
				}
			}
			if err := writer.Write([]string{"[" + t.Name + "]"}); err != nil {
				return fmt.Errorf("failed to write section %s: %w", t.Name, err)
			}
		}
		if err := writer.Write(t.Headers); err != nil {
			return fmt.Errorf("failed to write headers of %s: %w", t.Name, err)
		}
		for j, row := range t.Rows {
			record := make([]string, len(row))
			for k, cell := range row {
				record[k] = formatCell(cell)
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write record %d of %s: %w", j, t.Name, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// CSVWriter writes export files into the exports directory
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths, logger: slog.Default()}
}

// WriteFile writes tables with section markers and a BOM to filename and
// returns the full path
func (w *CSVWriter) WriteFile(filename string, tables []Table) (string, error) {
	fullPath := w.resolvePath(filename)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filename),
		slog.String("full_path", fullPath),
		slog.Int("table_count", len(tables)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if err := WriteCSV(file, tables, WriteOptions{BOMPrefix: true, SectionMarkers: true}); err != nil {
		file.Close()
		return "", err
	}
	return fullPath, file.Close()
}

// resolvePath places relative names in the exports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil || w.paths.ExportsDir == "" {
		return filePath
	}
	return filepath.Join(w.paths.ExportsDir, filePath)
}
