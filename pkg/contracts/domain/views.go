package domain

// FilterParams is the three-way dashboard selection.
// An empty AgeGroups or LandTypes set selects nothing.
type FilterParams struct {
	Year      int        `json:"year" validate:"min=0"`
	AgeGroups []AgeGroup `json:"age_groups" validate:"dive,min=1,max=6"`
	LandTypes []string   `json:"land_types" validate:"dive,max=200"`
}

// SelectionOptions are the values a client may offer in its selectors.
type SelectionOptions struct {
	Years     []int         `json:"years"`
	AgeGroups []AgeGroup    `json:"age_groups"`
	LandTypes []string      `json:"land_types"`
	Months    []FiscalMonth `json:"months"`
	Default   FilterParams  `json:"default"`
}

// View names accepted by ViewSet.View.
const (
	ViewMetrics            = "metrics"
	ViewAmountByAgeGroup   = "amount_by_age_group"
	ViewUnitsByAgeGroup    = "units_by_age_group"
	ViewAmountShare        = "amount_share_by_age_group"
	ViewAmountByMonth      = "amount_by_month"
	ViewAmountPivot        = "amount_pivot"
	ViewCountCrosstab      = "count_crosstab"
	ViewAmountByYear       = "amount_by_year"
	ViewDistinctInvestors  = "distinct_investors"
	ViewLandByAgeGroup     = "land_by_age_group"
	ViewAmountDistribution = "amount_distribution"
	ViewTrendByAgeGroup    = "trend_by_age_group"
)

// ViewNames lists the views in display order.
func ViewNames() []string {
	return []string{
		ViewMetrics,
		ViewAmountByAgeGroup,
		ViewUnitsByAgeGroup,
		ViewAmountShare,
		ViewAmountByMonth,
		ViewAmountPivot,
		ViewCountCrosstab,
		ViewAmountByYear,
		ViewDistinctInvestors,
		ViewLandByAgeGroup,
		ViewAmountDistribution,
		ViewTrendByAgeGroup,
	}
}

// KeyMetrics are the headline numbers of a filtered subset.
type KeyMetrics struct {
	TotalAmount       float64 `json:"total_amount"`
	TotalUnits        float64 `json:"total_units"`
	DistinctInvestors int     `json:"distinct_investors"`
	Records           int     `json:"records"`
}

// AgeGroupValue is one (age group, value) row.
type AgeGroupValue struct {
	AgeGroup AgeGroup `json:"age_group"`
	Value    float64  `json:"value"`
}

// AgeGroupShare is an age group's part of the subset amount.
type AgeGroupShare struct {
	AgeGroup AgeGroup `json:"age_group"`
	Amount   float64  `json:"amount"`
	Percent  float64  `json:"percent"`
}

// MonthValue is one (fiscal month, value) row.
type MonthValue struct {
	Month FiscalMonth `json:"month"`
	Value float64     `json:"value"`
}

// YearValue is one (year, value) row.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// Pivot is a fiscal month × age group grid of sums.
// Values[i][j] belongs to Months[i] and AgeGroups[j].
type Pivot struct {
	Months    []FiscalMonth `json:"months"`
	AgeGroups []AgeGroup    `json:"age_groups"`
	Values    [][]float64   `json:"values"`
}

// Cell returns the value at (m, g), zero when either key is absent.
func (p Pivot) Cell(m FiscalMonth, g AgeGroup) float64 {
	i, j := indexOfMonth(p.Months, m), indexOfGroup(p.AgeGroups, g)
	if i < 0 || j < 0 {
		return 0
	}
	return p.Values[i][j]
}

// CountTable is a fiscal month × age group grid of record counts.
type CountTable struct {
	Months    []FiscalMonth `json:"months"`
	AgeGroups []AgeGroup    `json:"age_groups"`
	Counts    [][]int       `json:"counts"`
}

// Cell returns the count at (m, g), zero when either key is absent.
func (c CountTable) Cell(m FiscalMonth, g AgeGroup) int {
	i, j := indexOfMonth(c.Months, m), indexOfGroup(c.AgeGroups, g)
	if i < 0 || j < 0 {
		return 0
	}
	return c.Counts[i][j]
}

// LandDistribution counts records per age group and land type.
// Counts[i][j] belongs to AgeGroups[i] and LandTypes[j].
type LandDistribution struct {
	AgeGroups []AgeGroup `json:"age_groups"`
	LandTypes []string   `json:"land_types"`
	Counts    [][]int    `json:"counts"`
}

// BoxStats summarizes the amount distribution of one age group.
type BoxStats struct {
	AgeGroup AgeGroup `json:"age_group"`
	Count    int      `json:"count"`
	Min      float64  `json:"min"`
	Q1       float64  `json:"q1"`
	Median   float64  `json:"median"`
	Q3       float64  `json:"q3"`
	Max      float64  `json:"max"`
}

// TrendPoint is one (month, age group, amount) row of the per-group trend.
type TrendPoint struct {
	Month    FiscalMonth `json:"month"`
	AgeGroup AgeGroup    `json:"age_group"`
	Amount   float64     `json:"amount"`
}

// ViewSet holds every aggregation computed for one selection.
type ViewSet struct {
	Params                FilterParams     `json:"params"`
	Metrics               KeyMetrics       `json:"metrics"`
	AmountByAgeGroup      []AgeGroupValue  `json:"amount_by_age_group"`
	UnitsByAgeGroup       []AgeGroupValue  `json:"units_by_age_group"`
	AmountShareByAgeGroup []AgeGroupShare  `json:"amount_share_by_age_group"`
	AmountByMonth         []MonthValue     `json:"amount_by_month"`
	AmountPivot           Pivot            `json:"amount_pivot"`
	CountCrosstab         CountTable       `json:"count_crosstab"`
	AmountByYear          []YearValue      `json:"amount_by_year"`
	DistinctInvestors     int              `json:"distinct_investors"`
	LandByAgeGroup        LandDistribution `json:"land_by_age_group"`
	AmountDistribution    []BoxStats       `json:"amount_distribution"`
	TrendByAgeGroup       []TrendPoint     `json:"trend_by_age_group"`
}

// View returns the named view, or false for an unknown name.
func (v *ViewSet) View(name string) (interface{}, bool) {
	switch name {
	case ViewMetrics:
		return v.Metrics, true
	case ViewAmountByAgeGroup:
		return v.AmountByAgeGroup, true
	case ViewUnitsByAgeGroup:
		return v.UnitsByAgeGroup, true
	case ViewAmountShare:
		return v.AmountShareByAgeGroup, true
	case ViewAmountByMonth:
		return v.AmountByMonth, true
	case ViewAmountPivot:
		return v.AmountPivot, true
	case ViewCountCrosstab:
		return v.CountCrosstab, true
	case ViewAmountByYear:
		return v.AmountByYear, true
	case ViewDistinctInvestors:
		return v.DistinctInvestors, true
	case ViewLandByAgeGroup:
		return v.LandByAgeGroup, true
	case ViewAmountDistribution:
		return v.AmountDistribution, true
	case ViewTrendByAgeGroup:
		return v.TrendByAgeGroup, true
	default:
		return nil, false
	}
}

func indexOfMonth(months []FiscalMonth, m FiscalMonth) int {
	for i, candidate := range months {
		if candidate == m {
			return i
		}
	}
	return -1
}

func indexOfGroup(groups []AgeGroup, g AgeGroup) int {
	for i, candidate := range groups {
		if candidate == g {
			return i
		}
	}
	return -1
}
