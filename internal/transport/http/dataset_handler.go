package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "investlens/internal/errors"
	"investlens/internal/middleware"
	"investlens/internal/services"
)

// DatasetHandler exposes the loaded table's summary and the reload operation
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a dataset handler
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes. Reloads are audit logged.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetSummary)
	r.With(middleware.AuditLog(h.logger)).Post("/reload", h.Reload)

	return r
}

// GetSummary handles GET /api/dataset
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// Reload handles POST /api/dataset/reload
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	start := time.Now()

	h.logger.InfoContext(r.Context(), "dataset reload requested",
		slog.String("request_id", reqID),
	)

	summary, err := h.service.Reload(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "dataset reload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.handleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset reloaded",
		slog.String("request_id", reqID),
		slog.Int("records", summary.Records),
		slog.Int("dropped", summary.DroppedTotal),
		slog.Duration("duration", time.Since(start)),
	)
	render.JSON(w, r, summary)
}

func (h *DatasetHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrDatasetNotLoaded) {
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotLoaded)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
