package domain

import (
	"fmt"
	"strings"
	"time"
)

// FiscalMonth is a month of the July→January investment window.
// The zero value is not a valid month.
type FiscalMonth int

const (
	MonthJuly FiscalMonth = iota + 1
	MonthAugust
	MonthSeptember
	MonthOctober
	MonthNovember
	MonthDecember
	MonthJanuary
)

// fiscalMonthNames is indexed by FiscalMonth; order is the fiscal sequence.
var fiscalMonthNames = [...]string{
	"",
	"JULY",
	"AUGUST",
	"SEPTEMBER",
	"OCTOBER",
	"NOVEMBER",
	"DECEMBER",
	"JANUARY",
}

// FiscalMonths returns the window in fiscal order.
func FiscalMonths() []FiscalMonth {
	return []FiscalMonth{
		MonthJuly, MonthAugust, MonthSeptember, MonthOctober,
		MonthNovember, MonthDecember, MonthJanuary,
	}
}

// ParseFiscalMonth trims and upper-cases s and looks it up in the window.
func ParseFiscalMonth(s string) (FiscalMonth, bool) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for i := 1; i < len(fiscalMonthNames); i++ {
		if fiscalMonthNames[i] == name {
			return FiscalMonth(i), true
		}
	}
	return 0, false
}

// Valid reports whether m is one of the seven window months.
func (m FiscalMonth) Valid() bool {
	return m >= MonthJuly && m <= MonthJanuary
}

// Ordinal is the zero-based position of m in the fiscal sequence.
func (m FiscalMonth) Ordinal() int {
	return int(m) - 1
}

func (m FiscalMonth) String() string {
	if !m.Valid() {
		return ""
	}
	return fiscalMonthNames[m]
}

// MarshalText implements encoding.TextMarshaler
func (m FiscalMonth) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *FiscalMonth) UnmarshalText(text []byte) error {
	parsed, ok := ParseFiscalMonth(string(text))
	if !ok {
		return fmt.Errorf("month %q is outside the fiscal window", string(text))
	}
	*m = parsed
	return nil
}

// AgeGroup is one of the fixed investor age buckets.
// AgeGroupNone marks ages outside [18,100).
type AgeGroup int

const (
	AgeGroupNone AgeGroup = iota
	AgeGroup18To29
	AgeGroup30To39
	AgeGroup40To49
	AgeGroup50To59
	AgeGroup60To69
	AgeGroup70Plus
)

var ageGroupLabels = [...]string{
	"",
	"18-29",
	"30-39",
	"40-49",
	"50-59",
	"60-69",
	"70+",
}

// AgeGroups returns every bucket in label order.
func AgeGroups() []AgeGroup {
	return []AgeGroup{
		AgeGroup18To29, AgeGroup30To39, AgeGroup40To49,
		AgeGroup50To59, AgeGroup60To69, AgeGroup70Plus,
	}
}

// ParseAgeGroup matches an exact label such as "30-39" or "70+".
func ParseAgeGroup(label string) (AgeGroup, bool) {
	label = strings.TrimSpace(label)
	for i := 1; i < len(ageGroupLabels); i++ {
		if ageGroupLabels[i] == label {
			return AgeGroup(i), true
		}
	}
	return AgeGroupNone, false
}

// Valid reports whether g is a real bucket.
func (g AgeGroup) Valid() bool {
	return g >= AgeGroup18To29 && g <= AgeGroup70Plus
}

// Index is the zero-based column position of g in label order.
func (g AgeGroup) Index() int {
	return int(g) - 1
}

func (g AgeGroup) String() string {
	if !g.Valid() {
		return ""
	}
	return ageGroupLabels[g]
}

// MarshalText implements encoding.TextMarshaler
func (g AgeGroup) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (g *AgeGroup) UnmarshalText(text []byte) error {
	parsed, ok := ParseAgeGroup(string(text))
	if !ok {
		return fmt.Errorf("unknown age group %q", string(text))
	}
	*g = parsed
	return nil
}

// InvestmentRecord is one normalized and segmented row of the canonical table.
type InvestmentRecord struct {
	BirthDate       time.Time   `json:"birth_date"`
	InvestmentYear  int         `json:"investment_year"`
	InvestmentMonth FiscalMonth `json:"investment_month"`
	LandType        string      `json:"land_type"`
	UnitCount       float64     `json:"unit_count"`
	AmountPaid      float64     `json:"amount_paid"`
	Age             int         `json:"age"`
	AgeGroup        AgeGroup    `json:"age_group"`
	// SourceRow is the 1-based row number in the source sheet, header included.
	SourceRow int `json:"source_row"`
}

// BirthDay returns the birth date truncated to a calendar day, used as the
// investor identity proxy.
func (r InvestmentRecord) BirthDay() time.Time {
	y, m, d := r.BirthDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DropReason names why the normalizer discarded a source row.
type DropReason string

const (
	DropMissingRequired   DropReason = "missing_required"
	DropInvalidBirthDate  DropReason = "invalid_birth_date"
	DropMonthOutsideRange DropReason = "month_outside_window"
	DropInvalidNumber     DropReason = "invalid_number"
	DropNegativeNumber    DropReason = "negative_number"
	DropMissingField      DropReason = "missing_field"
	DropInvalidYear       DropReason = "invalid_year"
)

// DropReasons lists every reason in the order the normalizer checks them.
func DropReasons() []DropReason {
	return []DropReason{
		DropMissingRequired,
		DropInvalidBirthDate,
		DropMonthOutsideRange,
		DropInvalidNumber,
		DropNegativeNumber,
		DropMissingField,
		DropInvalidYear,
	}
}

// DropReport counts discarded rows per reason.
type DropReport struct {
	Reasons map[DropReason]int `json:"reasons"`
}

// NewDropReport returns an empty report.
func NewDropReport() DropReport {
	return DropReport{Reasons: make(map[DropReason]int)}
}

// Add records one dropped row.
func (d *DropReport) Add(reason DropReason) {
	if d.Reasons == nil {
		d.Reasons = make(map[DropReason]int)
	}
	d.Reasons[reason]++
}

// Total is the number of dropped rows over all reasons.
func (d DropReport) Total() int {
	total := 0
	for _, n := range d.Reasons {
		total += n
	}
	return total
}

// DatasetSummary describes the currently loaded canonical table.
type DatasetSummary struct {
	Source        string     `json:"source"`
	LoadedAt      time.Time  `json:"loaded_at"`
	SourceRows    int        `json:"source_rows"`
	Records       int        `json:"records"`
	Ungrouped     int        `json:"ungrouped"`
	Dropped       DropReport `json:"dropped"`
	DroppedTotal  int        `json:"dropped_total"`
	ReferenceYear int        `json:"reference_year"`
	Fingerprint   string     `json:"fingerprint"`
}
