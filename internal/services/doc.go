// Package services implements the business logic between the HTTP handlers
// and the data processing pipeline.
//
// # Available Services
//
//	- DatasetService: loads the canonical investment table and computes views
//	- ExportService: renders views as xlsx, csv and png
//	- ReportService: serves the static report and the developer profile
//	- HealthService: provides health, readiness and version information
//
// # Dataset Lifecycle
//
// DatasetService keeps the canonical table in an immutable snapshot. Reload
// builds a new snapshot from the configured source and swaps it in with a
// single atomic store, so requests running during a reload keep reading the
// table they started with. Concurrent reloads share one load through
// singleflight. A failed reload leaves the previous snapshot in place.
//
// Views are recomputed from the snapshot for each selection and cached per
// snapshot under their ETag:
//
//	views, etag, err := datasetService.Views(ctx, params)
//	if errors.Is(err, services.ErrDatasetNotLoaded) {
//	    // 503
//	}
//
// # Error Handling
//
// Lookups return the sentinel errors in errors.go. Load failures are returned
// as *errors.AppError values (SCHEMA for missing columns, DATASET otherwise)
// that the HTTP error handler maps to problem responses.
package services
