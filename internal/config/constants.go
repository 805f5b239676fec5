package config

import (
	"time"

	"investlens/pkg/contracts"
)

// Application constants
const (
	// Application Info
	AppName    = "InvestLens"
	AppVersion = contracts.Version
	AppVendor  = "UMéRA Analytics"

	// Network Timeouts
	DatasetLoadTimeout  = 2 * time.Minute
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// Dataset defaults
	DefaultReferenceYear = 2025
	DefaultDatasetFile   = "data/investments.xlsx"

	// Root endpoints
	APIBasePath       = "/api"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"

	// API endpoints, relative to APIBasePath
	HealthEndpoint    = "/health"
	VersionEndpoint   = "/version"
	DatasetEndpoint   = "/dataset"
	DashboardEndpoint = "/dashboard"
	ReportEndpoint    = "/report"
	AboutEndpoint     = "/about"
)
