package http

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/render"

	apierrors "investlens/internal/errors"
	"investlens/internal/services"
)

// ReportHandler serves the static report document and the developer profile
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewReportHandler creates a report handler
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("handler", "report")),
		errorHandler: errorHandler,
	}
}

// DownloadReport handles GET /api/report. The file is served unchanged.
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.OpenReport(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.ErrReportNotFound)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("report download", err))
		return
	}
	defer report.File.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": report.Name}))
	http.ServeContent(w, r, report.Name, report.ModTime, report.File)
}

// About handles GET /api/about
func (h *ReportHandler) About(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.About())
}
