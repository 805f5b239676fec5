package dataprocessing

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"investlens/pkg/contracts/domain"
)

var hundred = decimal.NewFromInt(100)

// ComputeViews filters table by params and derives every dashboard view from
// the subset. It reads table without modifying it and holds no state between
// calls. An empty subset yields empty views and zero metrics.
func ComputeViews(table []domain.InvestmentRecord, params domain.FilterParams) domain.ViewSet {
	subset := Filter(table, params)

	views := domain.ViewSet{
		Params:             params,
		AmountByYear:       AmountByYear(FilterIgnoringYear(table, params)),
		AmountPivot:        AmountPivot(subset),
		CountCrosstab:      CountCrosstab(subset),
		DistinctInvestors:  DistinctInvestors(subset),
		AmountByAgeGroup:   AmountByAgeGroup(subset),
		UnitsByAgeGroup:    UnitsByAgeGroup(subset),
		AmountByMonth:      AmountByMonth(subset),
		LandByAgeGroup:     LandByAgeGroup(subset),
		AmountDistribution: AmountDistribution(subset),
	}
	views.Metrics = KeyMetricsOf(subset)
	views.AmountShareByAgeGroup = shareOf(views.AmountByAgeGroup)
	if len(subset) > 0 {
		views.TrendByAgeGroup = TrendFromPivot(views.AmountPivot)
	} else {
		views.TrendByAgeGroup = []domain.TrendPoint{}
	}
	return views
}

// KeyMetricsOf returns the headline totals of records.
func KeyMetricsOf(records []domain.InvestmentRecord) domain.KeyMetrics {
	amount, units := decimal.Zero, decimal.Zero
	for _, r := range records {
		amount = amount.Add(decimal.NewFromFloat(r.AmountPaid))
		units = units.Add(decimal.NewFromFloat(r.UnitCount))
	}
	return domain.KeyMetrics{
		TotalAmount:       amount.InexactFloat64(),
		TotalUnits:        units.InexactFloat64(),
		DistinctInvestors: DistinctInvestors(records),
		Records:           len(records),
	}
}

// DistinctInvestors counts distinct birth dates, the only identity available.
// Two investors sharing a birthday count once.
func DistinctInvestors(records []domain.InvestmentRecord) int {
	seen := make(map[time.Time]struct{}, len(records))
	for _, r := range records {
		seen[r.BirthDay()] = struct{}{}
	}
	return len(seen)
}

func sumByGroup(records []domain.InvestmentRecord, value func(domain.InvestmentRecord) float64) []domain.AgeGroupValue {
	sums := make(map[domain.AgeGroup]decimal.Decimal)
	for _, r := range records {
		if !r.AgeGroup.Valid() {
			continue
		}
		sums[r.AgeGroup] = sums[r.AgeGroup].Add(decimal.NewFromFloat(value(r)))
	}

	out := make([]domain.AgeGroupValue, 0, len(sums))
	for _, g := range domain.AgeGroups() {
		if sum, ok := sums[g]; ok {
			out = append(out, domain.AgeGroupValue{AgeGroup: g, Value: sum.InexactFloat64()})
		}
	}
	return out
}

// AmountByAgeGroup sums amounts per age group in label order, omitting empty groups.
func AmountByAgeGroup(records []domain.InvestmentRecord) []domain.AgeGroupValue {
	return sumByGroup(records, func(r domain.InvestmentRecord) float64 { return r.AmountPaid })
}

// UnitsByAgeGroup sums unit counts per age group in label order, omitting empty groups.
func UnitsByAgeGroup(records []domain.InvestmentRecord) []domain.AgeGroupValue {
	return sumByGroup(records, func(r domain.InvestmentRecord) float64 { return r.UnitCount })
}

func shareOf(byGroup []domain.AgeGroupValue) []domain.AgeGroupShare {
	total := decimal.Zero
	for _, v := range byGroup {
		total = total.Add(decimal.NewFromFloat(v.Value))
	}

	out := make([]domain.AgeGroupShare, 0, len(byGroup))
	for _, v := range byGroup {
		share := domain.AgeGroupShare{AgeGroup: v.AgeGroup, Amount: v.Value}
		if !total.IsZero() {
			share.Percent = decimal.NewFromFloat(v.Value).Mul(hundred).Div(total).Round(4).InexactFloat64()
		}
		out = append(out, share)
	}
	return out
}

// AmountShareByAgeGroup is each group's percentage of the total amount.
func AmountShareByAgeGroup(records []domain.InvestmentRecord) []domain.AgeGroupShare {
	return shareOf(AmountByAgeGroup(records))
}

// AmountByMonth sums amounts per fiscal month in fiscal order, months with
// records only.
func AmountByMonth(records []domain.InvestmentRecord) []domain.MonthValue {
	sums := make(map[domain.FiscalMonth]decimal.Decimal)
	for _, r := range records {
		sums[r.InvestmentMonth] = sums[r.InvestmentMonth].Add(decimal.NewFromFloat(r.AmountPaid))
	}

	out := make([]domain.MonthValue, 0, len(sums))
	for _, m := range domain.FiscalMonths() {
		if sum, ok := sums[m]; ok {
			out = append(out, domain.MonthValue{Month: m, Value: sum.InexactFloat64()})
		}
	}
	return out
}

// AmountPivot sums amounts on the full fiscal month × age group grid.
// Cells without records are zero.
func AmountPivot(records []domain.InvestmentRecord) domain.Pivot {
	months, groups := domain.FiscalMonths(), domain.AgeGroups()
	cells := make([][]decimal.Decimal, len(months))
	for i := range cells {
		cells[i] = make([]decimal.Decimal, len(groups))
	}
	for _, r := range records {
		if !r.InvestmentMonth.Valid() || !r.AgeGroup.Valid() {
			continue
		}
		i, j := r.InvestmentMonth.Ordinal(), r.AgeGroup.Index()
		cells[i][j] = cells[i][j].Add(decimal.NewFromFloat(r.AmountPaid))
	}

	values := make([][]float64, len(months))
	for i, row := range cells {
		values[i] = make([]float64, len(groups))
		for j, c := range row {
			values[i][j] = c.InexactFloat64()
		}
	}
	return domain.Pivot{Months: months, AgeGroups: groups, Values: values}
}

// CountCrosstab counts records on the full fiscal month × age group grid.
func CountCrosstab(records []domain.InvestmentRecord) domain.CountTable {
	months, groups := domain.FiscalMonths(), domain.AgeGroups()
	counts := make([][]int, len(months))
	for i := range counts {
		counts[i] = make([]int, len(groups))
	}
	for _, r := range records {
		if !r.InvestmentMonth.Valid() || !r.AgeGroup.Valid() {
			continue
		}
		counts[r.InvestmentMonth.Ordinal()][r.AgeGroup.Index()]++
	}
	return domain.CountTable{Months: months, AgeGroups: groups, Counts: counts}
}

// AmountByYear sums amounts per investment year, ascending.
func AmountByYear(records []domain.InvestmentRecord) []domain.YearValue {
	sums := make(map[int]decimal.Decimal)
	for _, r := range records {
		sums[r.InvestmentYear] = sums[r.InvestmentYear].Add(decimal.NewFromFloat(r.AmountPaid))
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]domain.YearValue, 0, len(years))
	for _, y := range years {
		out = append(out, domain.YearValue{Year: y, Value: sums[y].InexactFloat64()})
	}
	return out
}

// LandByAgeGroup counts records per age group and land type. Rows are the
// groups present in label order, columns the land types in first-seen order.
func LandByAgeGroup(records []domain.InvestmentRecord) domain.LandDistribution {
	var lands []string
	landIndex := make(map[string]int)
	present := make(map[domain.AgeGroup]bool)
	for _, r := range records {
		if !r.AgeGroup.Valid() {
			continue
		}
		present[r.AgeGroup] = true
		if _, ok := landIndex[r.LandType]; !ok {
			landIndex[r.LandType] = len(lands)
			lands = append(lands, r.LandType)
		}
	}

	dist := domain.LandDistribution{AgeGroups: []domain.AgeGroup{}, LandTypes: []string{}, Counts: [][]int{}}
	if len(lands) > 0 {
		dist.LandTypes = lands
	}
	rowIndex := make(map[domain.AgeGroup]int)
	for _, g := range domain.AgeGroups() {
		if present[g] {
			rowIndex[g] = len(dist.AgeGroups)
			dist.AgeGroups = append(dist.AgeGroups, g)
			dist.Counts = append(dist.Counts, make([]int, len(lands)))
		}
	}
	for _, r := range records {
		if !r.AgeGroup.Valid() {
			continue
		}
		dist.Counts[rowIndex[r.AgeGroup]][landIndex[r.LandType]]++
	}
	return dist
}

// AmountDistribution returns five-number summaries of amounts per age group.
func AmountDistribution(records []domain.InvestmentRecord) []domain.BoxStats {
	amounts := make(map[domain.AgeGroup][]float64)
	for _, r := range records {
		if r.AgeGroup.Valid() {
			amounts[r.AgeGroup] = append(amounts[r.AgeGroup], r.AmountPaid)
		}
	}

	out := make([]domain.BoxStats, 0, len(amounts))
	for _, g := range domain.AgeGroups() {
		values, ok := amounts[g]
		if !ok {
			continue
		}
		sort.Float64s(values)
		out = append(out, domain.BoxStats{
			AgeGroup: g,
			Count:    len(values),
			Min:      values[0],
			Q1:       Quantile(values, 0.25),
			Median:   Quantile(values, 0.5),
			Q3:       Quantile(values, 0.75),
			Max:      values[len(values)-1],
		})
	}
	return out
}

// Quantile interpolates linearly between the closest ranks of sorted.
// sorted must be ascending and non-empty.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// TrendFromPivot flattens the pivot into (month, age group, amount) rows,
// month major.
func TrendFromPivot(p domain.Pivot) []domain.TrendPoint {
	out := make([]domain.TrendPoint, 0, len(p.Months)*len(p.AgeGroups))
	for i, m := range p.Months {
		for j, g := range p.AgeGroups {
			out = append(out, domain.TrendPoint{Month: m, AgeGroup: g, Amount: p.Values[i][j]})
		}
	}
	return out
}

// Options lists the selectable values of table and the default selection:
// the earliest year with every present age group and land type.
func Options(table []domain.InvestmentRecord) domain.SelectionOptions {
	years := make(map[int]struct{})
	groups := make(map[domain.AgeGroup]struct{})
	months := make(map[domain.FiscalMonth]struct{})
	lands := make([]string, 0)
	seenLand := make(map[string]struct{})

	for _, r := range table {
		years[r.InvestmentYear] = struct{}{}
		months[r.InvestmentMonth] = struct{}{}
		if r.AgeGroup.Valid() {
			groups[r.AgeGroup] = struct{}{}
		}
		if _, ok := seenLand[r.LandType]; !ok {
			seenLand[r.LandType] = struct{}{}
			lands = append(lands, r.LandType)
		}
	}

	opts := domain.SelectionOptions{
		Years:     make([]int, 0, len(years)),
		AgeGroups: make([]domain.AgeGroup, 0, len(groups)),
		LandTypes: lands,
		Months:    make([]domain.FiscalMonth, 0, len(months)),
	}
	for y := range years {
		opts.Years = append(opts.Years, y)
	}
	sort.Ints(opts.Years)
	for _, g := range domain.AgeGroups() {
		if _, ok := groups[g]; ok {
			opts.AgeGroups = append(opts.AgeGroups, g)
		}
	}
	for _, m := range domain.FiscalMonths() {
		if _, ok := months[m]; ok {
			opts.Months = append(opts.Months, m)
		}
	}

	opts.Default = domain.FilterParams{
		AgeGroups: append([]domain.AgeGroup(nil), opts.AgeGroups...),
		LandTypes: append([]string(nil), opts.LandTypes...),
	}
	if len(opts.Years) > 0 {
		opts.Default.Year = opts.Years[0]
	}
	return opts
}
