// Package app wires InvestLens together and runs it.
//
// New builds every component from a config.Config: resolved paths,
// OpenTelemetry providers, the WebSocket hub, the dataset, export, report
// and health services, and the chi router that exposes them. Nothing is
// started until Start is called.
//
// # Routes
//
//	/ws                          dataset reload notifications
//	/metrics                     Prometheus exposition
//	/api/health[/ready|/live]    health probes
//	/api/version                 build information
//	/api/dataset[/reload]        dataset summary and reload
//	/api/dashboard/...           options, views, exports and charts
//	/api/report, /api/about      report download and developer profile
//
// The WebSocket and metrics endpoints are mounted before the logging,
// timeout and rate limiting middleware so the connection can be hijacked.
//
// # Lifecycle
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down, closes
// every WebSocket client and flushes telemetry.
package app
