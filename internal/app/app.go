package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"investlens/internal/config"
	apierrors "investlens/internal/errors"
	"investlens/internal/infrastructure"
	customMiddleware "investlens/internal/middleware"
	"investlens/internal/services"
	handlers "investlens/internal/transport/http"
	"investlens/internal/validation"
	ws "investlens/internal/websocket"
	"investlens/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.Metrics
	WebSocketHub  *ws.Hub
	Services      *ServiceContainer

	errorHandler *apierrors.ErrorHandler
	startedAt    time.Time
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dataset *services.DatasetService
	Export  *services.ExportService
	Report  *services.ReportService
	Health  *services.HealthService
}

// NewApplication loads the configuration and logger and builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from cfg. Nothing is started.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	startedAt := time.Now()

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.String("dataset_source", cfg.Dataset.Source))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	if err := infrastructure.RegisterRuntimeMetrics(otelProviders.Meter, startedAt); err != nil {
		return nil, fmt.Errorf("failed to register runtime metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		errorHandler:  apierrors.NewErrorHandler(logger, false),
		startedAt:     startedAt,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	hubMetrics, err := ws.NewHubMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	hub := ws.NewHub(a.Logger, ws.WithHubMetrics(hubMetrics))
	hub.Start()
	a.WebSocketHub = hub

	dataset, err := services.NewDatasetServiceFromConfig(a.Config.Dataset, a.Paths.DatasetFile, a.Logger,
		services.WithMetrics(a.Metrics),
		services.WithHub(hub),
		services.WithLoadTimeout(config.DatasetLoadTimeout),
	)
	if err != nil {
		hub.Stop()
		return fmt.Errorf("failed to initialize dataset service: %w", err)
	}

	a.Services = &ServiceContainer{
		Dataset: dataset,
		Export:  services.NewExportService(dataset, a.Metrics, a.Logger),
		Report:  services.NewReportService(a.Paths.ReportFile, a.Config.About, a.Logger),
		Health:  services.NewHealthService(config.AppVersion, contracts.BuildTime, dataset, hub, a.Paths, a.Logger),
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Only middleware that keeps the ResponseWriter hijackable runs before /ws
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	r.Handle(config.WebSocketEndpoint, ws.NewHandler(a.WebSocketHub, a.Config.WebSocket,
		a.Config.Security.AllowedOrigins, a.errorHandler, a.Logger))

	r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.errorHandler))
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Get(config.HealthEndpoint, healthHandler.HealthCheck)
		r.Get(config.HealthEndpoint+"/ready", healthHandler.ReadinessCheck)
		r.Get(config.HealthEndpoint+"/live", healthHandler.LivenessCheck)
		r.Get(config.VersionEndpoint, healthHandler.Version)

		datasetHandler := handlers.NewDatasetHandler(a.Services.Dataset, a.Logger, a.errorHandler)
		r.Mount(config.DatasetEndpoint, datasetHandler.Routes())

		dashboardHandler := handlers.NewDashboardHandler(a.Services.Dataset, a.Services.Export, a.Logger, a.errorHandler)
		r.Mount(config.DashboardEndpoint, dashboardHandler.Routes())

		reportHandler := handlers.NewReportHandler(a.Services.Report, a.Logger, a.errorHandler)
		r.Get(config.ReportEndpoint, reportHandler.DownloadReport)
		r.Get(config.AboutEndpoint, reportHandler.About)
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"If-None-Match",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"ETag",
			"X-Request-ID",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts serving and, when configured, loads the dataset in the background
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if a.Config.Dataset.LoadOnStart {
		go a.loadDataset(ctx)
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// loadDataset performs the initial load. A failure leaves the service
// unready until a reload succeeds.
func (a *Application) loadDataset(ctx context.Context) {
	ctx = infrastructure.EnsureTraceID(ctx)
	summary, err := a.Services.Dataset.Reload(ctx)
	if err != nil {
		infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "Initial dataset load failed",
			slog.String("source", a.Services.Dataset.SourceName()))
		return
	}
	a.Logger.InfoContext(ctx, "Initial dataset loaded",
		slog.Int("records", summary.Records),
		slog.Int("dropped", summary.DroppedTotal))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete",
		slog.Duration("uptime", time.Since(a.startedAt)))
	return nil
}

// Run runs the application until interrupted or until the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(ctx)
}

// performStartupHealthCheck verifies the dataset file and the exports
// directory. Problems are reported, not fatal.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	validator := validation.NewFileValidator(infrastructure.WithComponent(a.Logger, "startup_check"))
	var warnings []string

	if a.Config.Dataset.Source == "file" {
		if err := validator.ValidateDatasetFile(a.Paths.DatasetFile); err != nil {
			warnings = append(warnings, fmt.Sprintf("dataset file: %v", err))
		}
	}
	if a.Paths.ExportsDir != "" {
		if err := validator.ValidateOutputDirectory(a.Paths.ExportsDir); err != nil {
			warnings = append(warnings, fmt.Sprintf("exports directory: %v", err))
		}
	}
	if a.Paths.ReportFile != "" && !config.FileExists(a.Paths.ReportFile) {
		a.Logger.InfoContext(ctx, "Report document not found",
			slog.String("path", a.Paths.ReportFile))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
