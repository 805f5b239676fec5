// Package dataprocessing turns a raw investment sheet into the canonical
// investor table and derives the dashboard aggregations from it.
//
// # Architecture
//
// The package is organized into five stages:
//
// 1. Loader: reads a source table (xlsx, csv, Google Sheet, PostgreSQL) and projects the six required columns
// 2. Normalizer: parses dates, months and amounts, dropping unusable rows with a counted reason
// 3. Segmenter: derives age and age group against a reference year
// 4. Filter: selects the subset for a (year, age groups, land types) selection
// 5. Views: aggregates the subset into the chart views
//
// # Usage
//
// Building the canonical table:
//
//	src, err := dataprocessing.NewSource(dataprocessing.SourceConfig{Kind: "file", Path: "investments.xlsx"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	canon, err := dataprocessing.BuildCanonical(ctx, src, dataprocessing.BuildOptions{
//	    Columns:       dataprocessing.DefaultColumns(),
//	    ReferenceYear: 2025,
//	})
//
// Computing views for a selection:
//
//	opts := dataprocessing.Options(canon.Records)
//	views := dataprocessing.ComputeViews(canon.Records, opts.Default)
//
// # Data Flow
//
//	Source → RawTable → Project → Normalize → Segment → canonical table → Filter → ComputeViews
//
// # Error Handling
//
// Only a missing required column is fatal (*SchemaError). Bad rows are
// dropped and counted in a domain.DropReport.
//
// The canonical table is never modified after BuildCanonical returns, so
// ComputeViews may be called concurrently against the same table.
package dataprocessing
