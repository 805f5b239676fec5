package dataprocessing

import (
	"fmt"
	"strings"
)

// Columns maps each required field to its header in the source table.
// Header matching is exact and case-sensitive.
type Columns struct {
	BirthDate       string
	InvestmentYear  string
	InvestmentMonth string
	LandType        string
	UnitCount       string
	AmountPaid      string
}

// DefaultColumns returns the standard investment sheet headers.
func DefaultColumns() Columns {
	return Columns{
		BirthDate:       "DOB",
		InvestmentYear:  "INVESTMENT YEAR",
		InvestmentMonth: "INVESTMENT MONTH",
		LandType:        "LAND",
		UnitCount:       "UNIT",
		AmountPaid:      "AMOUNT",
	}
}

// ordered returns the headers in field order. Empty names fall back to the defaults.
func (c Columns) ordered() []string {
	def := DefaultColumns()
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	return []string{
		pick(c.BirthDate, def.BirthDate),
		pick(c.InvestmentYear, def.InvestmentYear),
		pick(c.InvestmentMonth, def.InvestmentMonth),
		pick(c.LandType, def.LandType),
		pick(c.UnitCount, def.UnitCount),
		pick(c.AmountPaid, def.AmountPaid),
	}
}

// SchemaError reports required columns absent from the source header row.
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s: missing required columns: %s", e.Source, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// RawTable is an untyped source table: one header row and string cells.
// Rows may be shorter than Headers; missing trailing cells are blank.
type RawTable struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// RawRecord is the six projected cells of one source row.
type RawRecord struct {
	// Row is the 1-based row number in the source, header row included.
	Row             int
	BirthDate       string
	InvestmentYear  string
	InvestmentMonth string
	LandType        string
	UnitCount       string
	AmountPaid      string
}

// Project selects the required columns from table. Extra columns are ignored,
// rows with every cell blank are skipped.
func Project(table *RawTable, cols Columns) ([]RawRecord, error) {
	if table == nil {
		return nil, &SchemaError{Missing: cols.ordered()}
	}

	index := make(map[string]int, len(table.Headers))
	for i, h := range table.Headers {
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	wanted := cols.ordered()
	positions := make([]int, len(wanted))
	var missing []string
	for i, name := range wanted {
		pos, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		positions[i] = pos
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: table.Source, Missing: missing}
	}

	records := make([]RawRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		if isBlankRow(row) {
			continue
		}
		cell := func(field int) string {
			pos := positions[field]
			if pos < len(row) {
				return row[pos]
			}
			return ""
		}
		records = append(records, RawRecord{
			Row:             i + 2,
			BirthDate:       cell(0),
			InvestmentYear:  cell(1),
			InvestmentMonth: cell(2),
			LandType:        cell(3),
			UnitCount:       cell(4),
			AmountPaid:      cell(5),
		})
	}
	return records, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
