package services

import "errors"

// Dataset service errors
var (
	// Dataset state
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// Selection errors
	ErrUnknownView  = errors.New("unknown view")
	ErrUnknownChart = errors.New("unknown chart")

	// Report errors
	ErrReportNotFound = errors.New("report not found")
)
