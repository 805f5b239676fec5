// Package shared holds code used across packages that belongs to no single
// layer.
//
// # Test Utilities
//
// The testutil subpackage captures slog output so tests can assert on what a
// component logged:
//
//	logger, handler := testutil.NewTestLogger(t)
//	svc := services.NewDatasetService(src, opts, logger)
//	...
//	testutil.AssertLogContains(t, handler, slog.LevelInfo, "dataset loaded")
//	testutil.AssertLogAttr(t, handler, "service", "dataset")
//
// Loggers handed to goroutines that may outlive the test should come from
// NewQuietLogger, which never writes to t.
package shared
