package dataprocessing

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	apierrors "investlens/internal/errors"
	"investlens/internal/files"
)

// Source kinds accepted by NewSource.
const (
	SourceFile     = "file"
	SourceSheets   = "sheets"
	SourcePostgres = "postgres"
)

// Source produces the raw investment table.
type Source interface {
	Load(ctx context.Context) (*RawTable, error)
	Name() string
}

// SourceConfig selects and parameterizes a Source.
type SourceConfig struct {
	Kind string

	// file
	Path  string
	Sheet string

	// sheets
	SpreadsheetID   string
	Range           string
	CredentialsFile string

	// postgres
	DSN   string
	Table string
}

// NewSource builds the Source described by cfg.
func NewSource(cfg SourceConfig) (Source, error) {
	switch cfg.Kind {
	case "", SourceFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file source requires a path")
		}
		return &FileSource{Path: cfg.Path, Sheet: cfg.Sheet}, nil
	case SourceSheets:
		if cfg.SpreadsheetID == "" {
			return nil, fmt.Errorf("sheets source requires a spreadsheet id")
		}
		return &SheetsSource{SpreadsheetID: cfg.SpreadsheetID, Range: cfg.Range, CredentialsFile: cfg.CredentialsFile}, nil
	case SourcePostgres:
		if cfg.DSN == "" || cfg.Table == "" {
			return nil, fmt.Errorf("postgres source requires a dsn and a table")
		}
		return &PostgresSource{DSN: cfg.DSN, Table: cfg.Table}, nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Kind)
	}
}

// FileSource reads an .xlsx workbook or a .csv file from disk. When Path is
// a directory the newest dataset file in it is read.
type FileSource struct {
	Path  string
	Sheet string
}

func (s *FileSource) Name() string {
	return filepath.Base(s.Path)
}

func (s *FileSource) Load(ctx context.Context) (*RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := files.NewDiscovery("").ResolveDataset(s.Path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err := ReadWorkbook(path, s.Sheet)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to read dataset workbook", err).
				WithContext("path", path)
		}
		return table, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to open dataset file", err).
				WithContext("path", path)
		}
		defer f.Close()
		table, err := ReadCSV(f)
		if err != nil {
			return nil, apierrors.NewParsingError("failed to parse dataset file", err).
				WithContext("path", path)
		}
		table.Source = filepath.Base(path)
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported dataset file type %q", filepath.Ext(path))
	}
}

// ReadWorkbook reads sheet (the first sheet when empty) of an Excel workbook.
// Cells are read unformatted so date cells arrive as Excel serial numbers.
func ReadWorkbook(path, sheet string) (*RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return tableFromRows(filepath.Base(path), rows), nil
}

// ReadCSV reads a comma separated table. A leading UTF-8 BOM is ignored.
func ReadCSV(r io.Reader) (*RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return tableFromRows("csv", rows), nil
}

func tableFromRows(source string, rows [][]string) *RawTable {
	table := &RawTable{Source: source}
	if len(rows) == 0 {
		return table
	}
	table.Headers = rows[0]
	table.Rows = rows[1:]
	return table
}

// SheetsSource reads a range of a Google Sheet.
type SheetsSource struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string

	// Service overrides the client built from CredentialsFile.
	Service *sheets.Service
}

func (s *SheetsSource) Name() string {
	return "sheets:" + s.SpreadsheetID
}

func (s *SheetsSource) Load(ctx context.Context) (*RawTable, error) {
	srv := s.Service
	if srv == nil {
		var opts []option.ClientOption
		if s.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(s.CredentialsFile))
		}
		var err error
		srv, err = sheets.NewService(ctx, opts...)
		if err != nil {
			return nil, apierrors.NewNetworkError("failed to create sheets service", err)
		}
	}

	readRange := s.Range
	if readRange == "" {
		readRange = "A:Z"
	}
	resp, err := srv.Spreadsheets.Values.Get(s.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, apierrors.NewNetworkError("failed to read sheet range", err).
			WithContext("spreadsheet_id", s.SpreadsheetID).
			WithContext("range", readRange)
	}
	return tableFromRows(s.Name(), sheetValuesToRows(resp.Values)), nil
}

func sheetValuesToRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return rows
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// PostgresSource reads every row of a table; column names are the headers.
type PostgresSource struct {
	DSN   string
	Table string

	// DB overrides the connection opened from DSN.
	DB *sql.DB
}

func (s *PostgresSource) Name() string {
	return "postgres:" + s.Table
}

func (s *PostgresSource) Load(ctx context.Context) (*RawTable, error) {
	db := s.DB
	if db == nil {
		var err error
		db, err = sql.Open("postgres", s.DSN)
		if err != nil {
			return nil, apierrors.NewStorageError("failed to open database", err)
		}
		defer db.Close()
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteTable(s.Table))
	if err != nil {
		return nil, apierrors.NewStorageError("failed to query dataset table", err).
			WithContext("table", s.Table)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, apierrors.NewStorageError("failed to read columns", err).
			WithContext("table", s.Table)
	}

	table := &RawTable{Source: s.Name(), Headers: headers}
	for rows.Next() {
		values := make([]sql.NullString, len(headers))
		dest := make([]interface{}, len(headers))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, apierrors.NewStorageError(fmt.Sprintf("failed to scan row %d", len(table.Rows)+1), err).
				WithContext("table", s.Table)
		}
		cells := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				cells[i] = v.String
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, apierrors.NewStorageError("failed to iterate rows", err).
			WithContext("table", s.Table)
	}
	return table, nil
}

// quoteTable quotes each part of a possibly schema-qualified table name.
func quoteTable(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
