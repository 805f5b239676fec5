package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"investlens/internal/charts"
	"investlens/internal/config"
	"investlens/internal/exporter"
	"investlens/internal/infrastructure"
	"investlens/internal/services"
	"investlens/internal/validation"
	"investlens/pkg/contracts"
	"investlens/pkg/contracts/domain"
)

// options holds the parsed command line
type options struct {
	configFile string
	dataset    string
	year       int
	ageGroups  string
	lands      multiFlag
	views      string
	xlsxOut    string
	csvOut     string
	chartsDir  string
	logLevel   string
	version    bool
}

// multiFlag collects a repeatable string flag
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ", ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "segment: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("segment", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configFile, "config", "", "config.yaml to load (defaults to the usual search locations)")
	fs.StringVar(&opts.dataset, "dataset", "", "dataset file overriding the configured source")
	fs.IntVar(&opts.year, "year", 0, "investment year (defaults to the earliest year)")
	fs.StringVar(&opts.ageGroups, "age-groups", "", "comma separated age groups (defaults to all)")
	fs.Var(&opts.lands, "land", "land type to include; repeat for several (defaults to all)")
	fs.StringVar(&opts.views, "views", "", "comma separated view names to print (defaults to all)")
	fs.StringVar(&opts.xlsxOut, "xlsx", "", "write every view to this workbook")
	fs.StringVar(&opts.csvOut, "csv", "", "write every view to this CSV file (relative to the exports directory)")
	fs.StringVar(&opts.chartsDir, "charts", "", "write every chart as PNG into this directory")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFrom(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.dataset != "" {
		cfg.Dataset.Source = "file"
		cfg.Dataset.Path = opts.dataset
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := infrastructure.NewJSONLogger(stderr, opts.logLevel)

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return err
	}
	if opts.dataset != "" {
		paths.DatasetFile = opts.dataset
	}

	validator := validation.NewFileValidator(logger)
	if cfg.Dataset.Source == "file" {
		if err := validator.ValidateDatasetFile(paths.DatasetFile); err != nil {
			return err
		}
	}

	svc, err := services.NewDatasetServiceFromConfig(cfg.Dataset, paths.DatasetFile, logger,
		services.WithLoadTimeout(config.DatasetLoadTimeout))
	if err != nil {
		return err
	}
	summary, err := svc.Reload(ctx)
	if err != nil {
		return err
	}
	printSummary(stdout, summary)

	available, err := svc.Options()
	if err != nil {
		return err
	}
	params, err := selection(opts, available)
	if err != nil {
		return err
	}

	vs, _, err := svc.Views(ctx, params)
	if err != nil {
		return err
	}

	tables := exporter.ViewTables(vs)
	selected, err := pickTables(tables, opts.views)
	if err != nil {
		return err
	}
	for _, t := range selected {
		printTable(stdout, t)
	}

	return writeOutputs(opts, paths, validator, vs, tables, stdout)
}

// selection builds the filter from the flags; unset flags select everything
func selection(opts *options, available domain.SelectionOptions) (domain.FilterParams, error) {
	params := available.Default
	if opts.year != 0 {
		params.Year = opts.year
	}
	if opts.ageGroups != "" {
		params.AgeGroups = nil
		for _, label := range strings.Split(opts.ageGroups, ",") {
			label = strings.TrimSpace(label)
			if label == "" {
				continue
			}
			g, ok := domain.ParseAgeGroup(label)
			if !ok {
				return params, fmt.Errorf("unknown age group %q", label)
			}
			params.AgeGroups = append(params.AgeGroups, g)
		}
	}
	if len(opts.lands) > 0 {
		params.LandTypes = opts.lands
	}
	return params, nil
}

func pickTables(tables []exporter.Table, names string) ([]exporter.Table, error) {
	if strings.TrimSpace(names) == "" {
		return tables, nil
	}
	var out []exporter.Table
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		t, ok := exporter.Lookup(tables, name)
		if !ok {
			return nil, fmt.Errorf("unknown view %q (known: %s)", name, strings.Join(domain.ViewNames(), ", "))
		}
		out = append(out, t)
	}
	return out, nil
}

func writeOutputs(opts *options, paths *config.Paths, validator *validation.FileValidator, vs *domain.ViewSet, tables []exporter.Table, stdout io.Writer) error {
	done := color.New(color.FgGreen)

	if opts.xlsxOut != "" {
		f, err := os.Create(opts.xlsxOut)
		if err != nil {
			return fmt.Errorf("failed to create workbook: %w", err)
		}
		if err := exporter.WriteXLSX(f, tables); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		done.Fprintf(stdout, "Workbook written to %s\n", opts.xlsxOut)
	}

	if opts.csvOut != "" {
		if paths.ExportsDir != "" {
			if err := validator.ValidateOutputDirectory(paths.ExportsDir); err != nil {
				return err
			}
		}
		written, err := exporter.NewCSVWriter(paths).WriteFile(opts.csvOut, tables)
		if err != nil {
			return err
		}
		done.Fprintf(stdout, "CSV written to %s\n", written)
	}

	if opts.chartsDir != "" {
		if err := validator.ValidateOutputDirectory(opts.chartsDir); err != nil {
			return err
		}
		files, err := charts.SaveAll(opts.chartsDir, vs)
		if err != nil {
			return err
		}
		done.Fprintf(stdout, "%d charts written to %s\n", len(files), opts.chartsDir)
	}
	return nil
}

func printSummary(w io.Writer, s domain.DatasetSummary) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "\n=== %s ===\n", s.Source)
	fmt.Fprintf(w, "rows read: %d, records: %d, dropped: %d, ungrouped: %d, reference year: %d\n",
		s.SourceRows, s.Records, s.DroppedTotal, s.Ungrouped, s.ReferenceYear)
	for _, reason := range domain.DropReasons() {
		if n := s.Dropped.Reasons[reason]; n > 0 {
			fmt.Fprintf(w, "  dropped %-22s %d\n", string(reason)+":", n)
		}
	}
}

func printTable(w io.Writer, t exporter.Table) {
	color.New(color.FgYellow).Fprintf(w, "\n%s\n", t.Title)

	table := tablewriter.NewWriter(w)
	table.SetHeader(t.Headers)
	table.SetAutoFormatHeaders(false)
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatCell(v)
		}
		table.Append(cells)
	}
	table.Render()
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 2, 64)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
