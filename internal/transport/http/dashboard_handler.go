package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"gonum.org/v1/plot/vg"

	"investlens/internal/charts"
	apierrors "investlens/internal/errors"
	"investlens/internal/middleware"
	"investlens/internal/services"
	"investlens/pkg/contracts/domain"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypePNG  = "image/png"
)

var errUnsupportedFormat = errors.New("supported formats are xlsx and csv")

// DashboardHandler serves the filtered dashboard views, their exports and charts
type DashboardHandler struct {
	dataset      DatasetServiceInterface
	exports      ExportServiceInterface
	validator    *middleware.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a dashboard handler
func NewDashboardHandler(dataset DatasetServiceInterface, exports ExportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		dataset:      dataset,
		exports:      exports,
		validator:    middleware.NewValidator(),
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/options", h.GetOptions)
	r.Get("/views", h.GetViews)
	r.Get("/views/{view}", h.GetView)
	r.Get("/export.{format}", h.Export)
	r.Get("/charts/{chart}.png", h.GetChart)

	return r
}

// GetOptions handles GET /api/dashboard/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.dataset.Options()
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	render.JSON(w, r, options)
}

// GetViews handles GET /api/dashboard/views
func (h *DashboardHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	params, ok := h.selection(w, r)
	if !ok {
		return
	}

	vs, etag, err := h.dataset.Views(r.Context(), params)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if notModified(w, r, etag) {
		return
	}
	render.JSON(w, r, vs)
}

// GetView handles GET /api/dashboard/views/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	params, ok := h.selection(w, r)
	if !ok {
		return
	}

	view, etag, err := h.dataset.View(r.Context(), name, params)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if notModified(w, r, etag) {
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"view":   name,
		"params": params,
		"data":   view,
	})
}

// Export handles GET /api/dashboard/export.{xlsx,csv}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	var contentType string
	switch format {
	case services.FormatXLSX:
		contentType = contentTypeXLSX
	case services.FormatCSV:
		contentType = contentTypeCSV
	default:
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("format", format, errUnsupportedFormat))
		return
	}

	params, ok := h.selection(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exports.Export(r.Context(), format, params, &buf); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "views exported",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("format", format),
		slog.Int("year", params.Year),
		slog.Int("bytes", buf.Len()),
	)

	filename := fmt.Sprintf("investlens-views-%d.%s", params.Year, format)
	writeAttachment(w, contentType, filename, buf.Bytes())
}

// GetChart handles GET /api/dashboard/charts/{chart}.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "chart")
	if !services.IsChartName(name) {
		h.errorHandler.HandleError(w, r, apierrors.UnknownChartError(name, charts.Names()))
		return
	}

	width, ok := h.inches(w, r, "width")
	if !ok {
		return
	}
	height, ok := h.inches(w, r, "height")
	if !ok {
		return
	}
	params, ok := h.selection(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.exports.Chart(r.Context(), name, params, &buf, width, height); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypePNG)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// selection resolves the request's filter against the dataset defaults.
// It writes the error response and returns false on failure.
func (h *DashboardHandler) selection(w http.ResponseWriter, r *http.Request) (domain.FilterParams, bool) {
	options, err := h.dataset.Options()
	if err != nil {
		h.handleServiceError(w, r, err)
		return domain.FilterParams{}, false
	}
	params, err := parseFilterParams(r, options.Default, h.validator)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.FilterParams{}, false
	}
	return params, true
}

// inches reads an optional chart dimension given in inches. Zero means the
// chart default.
func (h *DashboardHandler) inches(w http.ResponseWriter, r *http.Request, key string) (vg.Length, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter(key, raw, err))
		return 0, false
	}
	if apiErr := h.validator.Var(key, v, "gte=2,lte=40"); apiErr != nil {
		h.errorHandler.HandleError(w, r, apiErr)
		return 0, false
	}
	return vg.Length(v) * vg.Inch, true
}

func (h *DashboardHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrDatasetNotLoaded):
		h.errorHandler.HandleError(w, r, apierrors.ErrDatasetNotLoaded)
	case errors.Is(err, services.ErrUnknownView):
		h.errorHandler.HandleError(w, r, apierrors.UnknownViewError(chi.URLParam(r, "view"), domain.ViewNames()))
	case errors.Is(err, services.ErrUnknownChart):
		h.errorHandler.HandleError(w, r, apierrors.UnknownChartError(chi.URLParam(r, "chart"), charts.Names()))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}

// notModified sets the ETag and answers 304 when the client already holds it
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	quoted := strconv.Quote(etag)
	w.Header().Set("ETag", quoted)
	w.Header().Set("Cache-Control", "no-cache")

	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == quoted || candidate == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
