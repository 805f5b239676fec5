package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"investlens/pkg/contracts/domain"
)

// NormalizeResult is the typed output of Normalize plus the rows it discarded.
// Records have no age or age group yet; see Segment.
type NormalizeResult struct {
	Records []domain.InvestmentRecord
	Dropped domain.DropReport
}

// birthDateLayouts are tried in order. Slash and dash dates are read month
// first; dayFirstLayouts only apply when no month-first reading is valid.
var birthDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01-02-2006",
	"1-2-2006",
	"01-02-06",
	"1-2-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"2-1-2006",
	"02-01-06",
}

// Excel serials above this are past 9999-12-31.
const maxExcelSerial = 2958465

// Normalize coerces projected rows into typed records. A row failing any check
// is dropped and counted under the first reason that applies; Normalize never
// fails as a whole.
func Normalize(rows []RawRecord) NormalizeResult {
	result := NormalizeResult{
		Records: make([]domain.InvestmentRecord, 0, len(rows)),
		Dropped: domain.NewDropReport(),
	}

	for _, raw := range rows {
		record, reason, ok := normalizeRow(raw)
		if !ok {
			result.Dropped.Add(reason)
			continue
		}
		result.Records = append(result.Records, record)
	}
	return result
}

func normalizeRow(raw RawRecord) (domain.InvestmentRecord, domain.DropReason, bool) {
	var rec domain.InvestmentRecord

	if isBlank(raw.BirthDate) || isBlank(raw.AmountPaid) {
		return rec, domain.DropMissingRequired, false
	}

	birth, ok := ParseBirthDate(raw.BirthDate)
	if !ok {
		return rec, domain.DropInvalidBirthDate, false
	}

	month, ok := domain.ParseFiscalMonth(raw.InvestmentMonth)
	if !ok {
		return rec, domain.DropMonthOutsideRange, false
	}

	units, err := ParseAmount(raw.UnitCount)
	if err != nil {
		return rec, domain.DropInvalidNumber, false
	}
	amount, err := ParseAmount(raw.AmountPaid)
	if err != nil {
		return rec, domain.DropInvalidNumber, false
	}
	if units.IsNegative() || amount.IsNegative() {
		return rec, domain.DropNegativeNumber, false
	}

	if isBlank(raw.InvestmentYear) || isBlank(raw.LandType) {
		return rec, domain.DropMissingField, false
	}
	year, ok := parseYear(raw.InvestmentYear)
	if !ok {
		return rec, domain.DropInvalidYear, false
	}

	rec = domain.InvestmentRecord{
		BirthDate:       birth,
		InvestmentYear:  year,
		InvestmentMonth: month,
		LandType:        strings.TrimSpace(raw.LandType),
		UnitCount:       units.InexactFloat64(),
		AmountPaid:      amount.InexactFloat64(),
		SourceRow:       raw.Row,
	}
	return rec, "", true
}

// ParseBirthDate reads a calendar date from text or an Excel serial day number.
// The result is truncated to the day in UTC.
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layouts := range [][]string{birthDateLayouts, dayFirstLayouts} {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return dayOf(t), true
			}
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < 1 || serial > maxExcelSerial || math.IsNaN(serial) {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return dayOf(t), true
	}
	return time.Time{}, false
}

// ParseAmount reads a number after removing thousands separators, currency
// symbols and spaces.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.NewReplacer(",", "", "₦", "", "$", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(s))
	return decimal.NewFromString(cleaned)
}

// parseYear accepts integers and integral floats such as "2024.0".
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
