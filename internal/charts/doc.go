// Package charts renders dashboard views as PNG images with gonum/plot.
// Every chart is drawn from a domain.ViewSet, never from raw records.
package charts
