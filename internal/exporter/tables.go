package exporter

import (
	"investlens/pkg/contracts/domain"
)

// Table is one view flattened to rows. Cells are string, int or float64.
type Table struct {
	Name    string
	Title   string
	Headers []string
	Rows    [][]interface{}
}

// ViewTables flattens every view of vs in display order
func ViewTables(vs *domain.ViewSet) []Table {
	return []Table{
		metricsTable(vs),
		groupValueTable(domain.ViewAmountByAgeGroup, "Amount Paid by Age Group", "Amount", vs.AmountByAgeGroup),
		groupValueTable(domain.ViewUnitsByAgeGroup, "Units Purchased by Age Group", "Units", vs.UnitsByAgeGroup),
		shareTable(vs.AmountShareByAgeGroup),
		monthTable(vs.AmountByMonth),
		pivotTable(vs.AmountPivot),
		crosstabTable(vs.CountCrosstab),
		yearTable(vs.AmountByYear),
		landTable(vs.LandByAgeGroup),
		distributionTable(vs.AmountDistribution),
		trendTable(vs.TrendByAgeGroup),
	}
}

// Lookup returns the table with the given name
func Lookup(tables []Table, name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

func metricsTable(vs *domain.ViewSet) Table {
	m := vs.Metrics
	return Table{
		Name:    domain.ViewMetrics,
		Title:   "Key Metrics",
		Headers: []string{"Metric", "Value"},
		Rows: [][]interface{}{
			{"Total Amount", m.TotalAmount},
			{"Total Units", m.TotalUnits},
			{"Distinct Investors", vs.DistinctInvestors},
			{"Records", m.Records},
		},
	}
}

func groupValueTable(name, title, valueHeader string, rows []domain.AgeGroupValue) Table {
	t := Table{Name: name, Title: title, Headers: []string{"Age Group", valueHeader}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.AgeGroup.String(), r.Value})
	}
	return t
}

func shareTable(rows []domain.AgeGroupShare) Table {
	t := Table{
		Name:    domain.ViewAmountShare,
		Title:   "Share of Amount by Age Group",
		Headers: []string{"Age Group", "Amount", "Percent"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.AgeGroup.String(), r.Amount, r.Percent})
	}
	return t
}

func monthTable(rows []domain.MonthValue) Table {
	t := Table{
		Name:    domain.ViewAmountByMonth,
		Title:   "Amount by Investment Month",
		Headers: []string{"Month", "Amount"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.Month.String(), r.Value})
	}
	return t
}

func groupHeaders(first string, groups []domain.AgeGroup) []string {
	headers := make([]string, 0, len(groups)+1)
	headers = append(headers, first)
	for _, g := range groups {
		headers = append(headers, g.String())
	}
	return headers
}

func pivotTable(p domain.Pivot) Table {
	t := Table{
		Name:    domain.ViewAmountPivot,
		Title:   "Amount by Month and Age Group",
		Headers: groupHeaders("Month", p.AgeGroups),
	}
	for i, m := range p.Months {
		row := []interface{}{m.String()}
		for j := range p.AgeGroups {
			row = append(row, p.Values[i][j])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func crosstabTable(c domain.CountTable) Table {
	t := Table{
		Name:    domain.ViewCountCrosstab,
		Title:   "Investments by Month and Age Group",
		Headers: groupHeaders("Month", c.AgeGroups),
	}
	for i, m := range c.Months {
		row := []interface{}{m.String()}
		for j := range c.AgeGroups {
			row = append(row, c.Counts[i][j])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func yearTable(rows []domain.YearValue) Table {
	t := Table{
		Name:    domain.ViewAmountByYear,
		Title:   "Total Amount by Year",
		Headers: []string{"Year", "Amount"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{r.Year, r.Value})
	}
	return t
}

func landTable(d domain.LandDistribution) Table {
	headers := make([]string, 0, len(d.LandTypes)+1)
	headers = append(headers, "Age Group")
	headers = append(headers, d.LandTypes...)

	t := Table{
		Name:    domain.ViewLandByAgeGroup,
		Title:   "Land Type by Age Group",
		Headers: headers,
	}
	for i, g := range d.AgeGroups {
		row := []interface{}{g.String()}
		for j := range d.LandTypes {
			row = append(row, d.Counts[i][j])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func distributionTable(stats []domain.BoxStats) Table {
	t := Table{
		Name:    domain.ViewAmountDistribution,
		Title:   "Amount Distribution by Age Group",
		Headers: []string{"Age Group", "Count", "Min", "Q1", "Median", "Q3", "Max"},
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{s.AgeGroup.String(), s.Count, s.Min, s.Q1, s.Median, s.Q3, s.Max})
	}
	return t
}

func trendTable(points []domain.TrendPoint) Table {
	t := Table{
		Name:    domain.ViewTrendByAgeGroup,
		Title:   "Monthly Trend by Age Group",
		Headers: []string{"Month", "Age Group", "Amount"},
	}
	for _, p := range points {
		t.Rows = append(t.Rows, []interface{}{p.Month.String(), p.AgeGroup.String(), p.Amount})
	}
	return t
}
