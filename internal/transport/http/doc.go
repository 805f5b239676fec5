// Package http implements the HTTP handlers of the dashboard API.
//
// Handlers are thin: they parse the request, call a service through a small
// interface (see interfaces.go) and render the result with go-chi/render.
// Service errors are mapped to API errors and written by the shared
// errors.ErrorHandler as RFC 7807 problem documents.
//
// # Dashboard selection
//
// Every dashboard endpoint accepts the same query parameters:
//
//	year=2024                  one investment year
//	age_group=30-39,40-49      repeatable, comma separated
//	land=Residential           repeatable; names may contain commas
//
// A parameter that is absent takes the dataset's default selection. One that
// is present but empty (age_group=) selects nothing, which yields empty views.
//
// # Caching
//
// GET /api/dashboard/views and /views/{view} send an ETag derived from the
// dataset fingerprint and the normalized selection, and answer 304 when the
// client's If-None-Match holds it.
//
// # Testing
//
// Handlers are tested with httptest and testify mocks of the service
// interfaces.
package http
