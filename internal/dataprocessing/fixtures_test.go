package dataprocessing

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"investlens/pkg/contracts/domain"
)

func record(year int, month domain.FiscalMonth, birthYear int, land string, units, amount float64) domain.InvestmentRecord {
	age := DefaultReferenceYear - birthYear
	return domain.InvestmentRecord{
		BirthDate:       time.Date(birthYear, time.March, 3, 0, 0, 0, 0, time.UTC),
		InvestmentYear:  year,
		InvestmentMonth: month,
		LandType:        land,
		UnitCount:       units,
		AmountPaid:      amount,
		Age:             age,
		AgeGroup:        AgeGroupFor(age),
	}
}

// sampleTable spans two years, four age groups, one ungrouped investor and
// three land types.
func sampleTable() []domain.InvestmentRecord {
	return []domain.InvestmentRecord{
		record(2024, domain.MonthJuly, 1995, "Residential", 1, 1000),
		record(2024, domain.MonthJuly, 1980, "Commercial", 2, 2500),
		record(2024, domain.MonthAugust, 1995, "Residential", 1, 500),
		record(2024, domain.MonthJanuary, 1960, "Farm", 3, 4000),
		record(2024, domain.MonthDecember, 1950, "Residential", 1, 750),
		record(2024, domain.MonthOctober, 2015, "Residential", 1, 9999),
		record(2023, domain.MonthSeptember, 1988, "Commercial", 2, 3000),
		record(2023, domain.MonthJuly, 1995, "Farm", 1, 1200),
	}
}

func allSelected(year int) domain.FilterParams {
	return domain.FilterParams{
		Year:      year,
		AgeGroups: domain.AgeGroups(),
		LandTypes: []string{"Residential", "Commercial", "Farm"},
	}
}

// writeWorkbook saves headers and rows to a new xlsx file in a temp dir.
func writeWorkbook(t *testing.T, headers []string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for r, row := range rows {
		for col, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "investments.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}
