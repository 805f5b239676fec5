package dataprocessing

import (
	"context"
	"fmt"

	"investlens/pkg/contracts/domain"
)

// Canonical is the normalized, segmented table produced from one source load.
// It is never modified after construction.
type Canonical struct {
	Source     string
	SourceRows int
	Records    []domain.InvestmentRecord
	Dropped    domain.DropReport
	Ungrouped  int
}

// BuildOptions controls projection and segmentation.
type BuildOptions struct {
	Columns       Columns
	ReferenceYear int
}

// BuildCanonical loads src and runs project → normalize → segment.
func BuildCanonical(ctx context.Context, src Source, opts BuildOptions) (*Canonical, error) {
	table, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", src.Name(), err)
	}
	return BuildFromTable(table, opts)
}

// BuildFromTable runs the pipeline on an already loaded table.
func BuildFromTable(table *RawTable, opts BuildOptions) (*Canonical, error) {
	raw, err := Project(table, opts.Columns)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(raw)
	records, ungrouped := NewSegmenter(opts.ReferenceYear).Segment(normalized.Records)

	return &Canonical{
		Source:     table.Source,
		SourceRows: len(raw),
		Records:    records,
		Dropped:    normalized.Dropped,
		Ungrouped:  ungrouped,
	}, nil
}
