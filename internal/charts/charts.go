package charts

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"investlens/pkg/contracts/domain"
)

// Chart names accepted by Build.
const (
	ChartAmountByAgeGroup   = "amount_by_age_group"
	ChartUnitsByAgeGroup    = "units_by_age_group"
	ChartAmountShare        = "amount_share_by_age_group"
	ChartAmountByMonth      = "amount_by_month"
	ChartAmountByYear       = "amount_by_year"
	ChartTrendByAgeGroup    = "trend_by_age_group"
	ChartLandByAgeGroup     = "land_by_age_group"
	ChartAmountDistribution = "amount_distribution"
	ChartAmountPivot        = "amount_pivot"
	ChartCountCrosstab      = "count_crosstab"
)

// ErrUnknownChart is returned by Build for a name outside Names.
var ErrUnknownChart = errors.New("unknown chart")

// Default image size.
const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

var palette = []color.Color{
	color.RGBA{R: 70, G: 130, B: 180, A: 255},
	color.RGBA{R: 34, G: 139, B: 34, A: 255},
	color.RGBA{R: 255, G: 165, B: 0, A: 255},
	color.RGBA{R: 220, G: 20, B: 60, A: 255},
	color.RGBA{R: 106, G: 90, B: 205, A: 255},
	color.RGBA{R: 0, G: 139, B: 139, A: 255},
	color.RGBA{R: 139, G: 69, B: 19, A: 255},
}

func paletteColor(i int) color.Color {
	return palette[i%len(palette)]
}

// Names lists every chart in display order.
func Names() []string {
	return []string{
		ChartAmountByAgeGroup,
		ChartUnitsByAgeGroup,
		ChartAmountShare,
		ChartAmountByMonth,
		ChartAmountByYear,
		ChartTrendByAgeGroup,
		ChartLandByAgeGroup,
		ChartAmountDistribution,
		ChartAmountPivot,
		ChartCountCrosstab,
	}
}

// Build draws the named chart from views. Charts with no data are returned
// with axes and title only.
func Build(name string, views *domain.ViewSet) (*plot.Plot, error) {
	switch name {
	case ChartAmountByAgeGroup:
		return groupBars("Amount Paid by Age Group", "Amount", views.AmountByAgeGroup)
	case ChartUnitsByAgeGroup:
		return groupBars("Units Purchased by Age Group", "Units", views.UnitsByAgeGroup)
	case ChartAmountShare:
		return shareBars(views.AmountShareByAgeGroup)
	case ChartAmountByMonth:
		return monthBars(views.AmountByMonth)
	case ChartAmountByYear:
		return yearLine(views.AmountByYear)
	case ChartTrendByAgeGroup:
		return trendLines(views.AmountPivot, len(views.TrendByAgeGroup) > 0)
	case ChartLandByAgeGroup:
		return landBars(views.LandByAgeGroup)
	case ChartAmountDistribution:
		return distributionBars(views.AmountDistribution)
	case ChartAmountPivot:
		return pivotHeatMap(views.AmountPivot)
	case ChartCountCrosstab:
		return crosstabBars(views.CountCrosstab)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, name)
	}
}

// WritePNG renders the named chart as a PNG image to w.
func WritePNG(w io.Writer, name string, views *domain.ViewSet, width, height vg.Length) error {
	p, err := Build(name, views)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// SaveAll writes every chart as <dir>/<name>.png and returns the paths.
func SaveAll(dir string, views *domain.ViewSet) ([]string, error) {
	paths := make([]string, 0, len(Names()))
	for _, name := range Names() {
		p, err := Build(name, views)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, name+".png")
		if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Y.Min = 0
	p.Add(plotter.NewGrid())
	return p
}

func groupBars(title, yLabel string, rows []domain.AgeGroupValue) (*plot.Plot, error) {
	p := newPlot(title, "Age Group", yLabel)
	if len(rows) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Value
		labels[i] = r.AgeGroup.String()
	}
	if err := addBars(p, values, paletteColor(0)); err != nil {
		return nil, err
	}
	p.NominalX(labels...)
	return p, nil
}

func shareBars(rows []domain.AgeGroupShare) (*plot.Plot, error) {
	p := newPlot("Share of Amount by Age Group", "Age Group", "Percent")
	p.Y.Max = 100
	if len(rows) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Percent
		labels[i] = fmt.Sprintf("%s (%.1f%%)", r.AgeGroup, r.Percent)
	}
	if err := addBars(p, values, paletteColor(2)); err != nil {
		return nil, err
	}
	p.NominalX(labels...)
	return p, nil
}

func monthBars(rows []domain.MonthValue) (*plot.Plot, error) {
	p := newPlot("Amount Paid by Month", "Month", "Amount")
	if len(rows) == 0 {
		return p, nil
	}

	values := make(plotter.Values, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		values[i] = r.Value
		labels[i] = r.Month.String()
	}
	if err := addBars(p, values, paletteColor(1)); err != nil {
		return nil, err
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

func yearLine(rows []domain.YearValue) (*plot.Plot, error) {
	p := newPlot("Amount Paid by Year", "Year", "Amount")
	if len(rows) == 0 {
		return p, nil
	}

	points := make(plotter.XYs, len(rows))
	labels := make([]string, len(rows))
	for i, r := range rows {
		points[i].X = float64(i)
		points[i].Y = r.Value
		labels[i] = fmt.Sprintf("%d", r.Year)
	}
	line, dots, err := plotter.NewLinePoints(points)
	if err != nil {
		return nil, fmt.Errorf("failed to build line: %w", err)
	}
	line.Color = paletteColor(0)
	line.Width = vg.Points(2)
	dots.GlyphStyle.Color = paletteColor(0)
	p.Add(line, dots)
	p.NominalX(labels...)
	return p, nil
}

func trendLines(pivot domain.Pivot, hasData bool) (*plot.Plot, error) {
	p := newPlot("Monthly Amount by Age Group", "Month", "Amount")
	labels := make([]string, len(pivot.Months))
	for i, m := range pivot.Months {
		labels[i] = m.String()
	}
	if !hasData {
		return p, nil
	}

	for j, g := range pivot.AgeGroups {
		points := make(plotter.XYs, len(pivot.Months))
		for i := range pivot.Months {
			points[i].X = float64(i)
			points[i].Y = pivot.Values[i][j]
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			return nil, fmt.Errorf("failed to build line for %s: %w", g, err)
		}
		line.Color = paletteColor(j)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(g.String(), line)
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	return p, nil
}

func landBars(dist domain.LandDistribution) (*plot.Plot, error) {
	p := newPlot("Land Type by Age Group", "Age Group", "Records")
	if len(dist.AgeGroups) == 0 || len(dist.LandTypes) == 0 {
		return p, nil
	}

	labels := make([]string, len(dist.AgeGroups))
	for i, g := range dist.AgeGroups {
		labels[i] = g.String()
	}

	width := barWidth(len(dist.LandTypes))
	for j, land := range dist.LandTypes {
		values := make(plotter.Values, len(dist.AgeGroups))
		for i := range dist.AgeGroups {
			values[i] = float64(dist.Counts[i][j])
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, fmt.Errorf("failed to build bars for %s: %w", land, err)
		}
		bars.Color = paletteColor(j)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = groupOffset(j, len(dist.LandTypes), width)
		p.Add(bars)
		p.Legend.Add(land, bars)
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	return p, nil
}

// distributionBars draws q1, median and q3 side by side per age group.
func distributionBars(stats []domain.BoxStats) (*plot.Plot, error) {
	p := newPlot("Amount Distribution by Age Group", "Age Group", "Amount")
	if len(stats) == 0 {
		return p, nil
	}

	labels := make([]string, len(stats))
	q1 := make(plotter.Values, len(stats))
	median := make(plotter.Values, len(stats))
	q3 := make(plotter.Values, len(stats))
	for i, s := range stats {
		labels[i] = fmt.Sprintf("%s (n=%d)", s.AgeGroup, s.Count)
		q1[i], median[i], q3[i] = s.Q1, s.Median, s.Q3
	}

	width := barWidth(3)
	for k, series := range []struct {
		name   string
		values plotter.Values
	}{{"Q1", q1}, {"Median", median}, {"Q3", q3}} {
		bars, err := plotter.NewBarChart(series.values, width)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s bars: %w", series.name, err)
		}
		bars.Color = paletteColor(k)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = groupOffset(k, 3, width)
		p.Add(bars)
		p.Legend.Add(series.name, bars)
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	return p, nil
}

// pivotGrid exposes a Pivot as a heat map grid: columns are months, rows
// are age groups.
type pivotGrid struct {
	pivot domain.Pivot
}

func (g pivotGrid) Dims() (c, r int)   { return len(g.pivot.Months), len(g.pivot.AgeGroups) }
func (g pivotGrid) Z(c, r int) float64 { return g.pivot.Values[c][r] }
func (g pivotGrid) X(c int) float64    { return float64(c) }
func (g pivotGrid) Y(r int) float64    { return float64(r) }

func pivotHeatMap(pivot domain.Pivot) (*plot.Plot, error) {
	p := newPlot("Amount Paid by Month and Age Group", "Month", "Age Group")
	if len(pivot.Months) == 0 || len(pivot.AgeGroups) == 0 || len(pivot.Values) != len(pivot.Months) {
		return p, nil
	}

	pal := moreland.SmoothBlueRed().Palette(255)
	heat := plotter.NewHeatMap(pivotGrid{pivot: pivot}, pal)
	if heat.Max <= heat.Min {
		heat.Max = heat.Min + 1
	}
	p.Add(heat)

	months := make([]string, len(pivot.Months))
	for i, m := range pivot.Months {
		months[i] = m.String()
	}
	groups := make([]string, len(pivot.AgeGroups))
	for j, g := range pivot.AgeGroups {
		groups[j] = g.String()
	}
	p.NominalX(months...)
	p.NominalY(groups...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

// crosstabBars stacks the per-age-group record counts of each month.
func crosstabBars(table domain.CountTable) (*plot.Plot, error) {
	p := newPlot("Records by Month and Age Group", "Month", "Records")
	if len(table.Months) == 0 || len(table.AgeGroups) == 0 || len(table.Counts) != len(table.Months) {
		return p, nil
	}

	labels := make([]string, len(table.Months))
	for i, m := range table.Months {
		labels[i] = m.String()
	}

	var below *plotter.BarChart
	for j, g := range table.AgeGroups {
		values := make(plotter.Values, len(table.Months))
		for i := range table.Months {
			values[i] = float64(table.Counts[i][j])
		}
		bars, err := plotter.NewBarChart(values, vg.Points(30))
		if err != nil {
			return nil, fmt.Errorf("failed to build bars for %s: %w", g, err)
		}
		bars.Color = paletteColor(j)
		bars.LineStyle.Width = vg.Length(0)
		if below != nil {
			bars.StackOn(below)
		}
		p.Add(bars)
		p.Legend.Add(g.String(), bars)
		below = bars
	}
	p.Legend.Top = true
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	return p, nil
}

func addBars(p *plot.Plot, values plotter.Values, c color.Color) error {
	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("failed to build bars: %w", err)
	}
	bars.Color = c
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	return nil
}

func barWidth(series int) vg.Length {
	w := vg.Points(60) / vg.Length(series)
	if w < vg.Points(6) {
		return vg.Points(6)
	}
	return w
}

func groupOffset(i, n int, width vg.Length) vg.Length {
	return vg.Length(float64(i)-float64(n-1)/2) * width
}
