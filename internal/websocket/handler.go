package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"investlens/internal/config"
	apierrors "investlens/internal/errors"
	"investlens/internal/infrastructure"
)

// Handler upgrades GET /ws requests and attaches the connection to the hub
type Handler struct {
	hub            *Hub
	cfg            config.WebSocketConfig
	allowedOrigins []string
	upgrader       websocket.Upgrader
	errorHandler   *apierrors.ErrorHandler
	logger         *slog.Logger
}

// NewHandler creates the upgrade handler. Origins are checked against
// allowedOrigins; "*" allows any origin.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:            hub,
		cfg:            cfg,
		allowedOrigins: allowedOrigins,
		errorHandler:   errorHandler,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.errorHandler.HandleError(w, r, apierrors.ErrWebSocketUpgrade.WithStatus(status, reason.Error()))
		},
	}
	return h
}

// checkOrigin allows same-host requests, requests without an Origin header
// and the configured origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	h.logger.WarnContext(r.Context(), "websocket origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins),
	)
	return false
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")),
		)
		return
	}

	logger := h.logger
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}
	client := NewClient(h.hub, gorillaConn{conn}, h.cfg, logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
