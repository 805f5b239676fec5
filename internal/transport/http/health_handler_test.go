package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"investlens/internal/services"
)

func TestHealthHandler(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		path       string
		setup      func(m *mockHealthService)
		wantStatus int
		wantBody   map[string]interface{}
	}{
		{
			name: "health",
			path: "/api/health",
			setup: func(m *mockHealthService) {
				m.On("HealthCheck", mock.Anything).Return(services.HealthStatus{Status: "ok", Timestamp: now, Version: "1.0.0"})
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "ok", "version": "1.0.0"},
		},
		{
			name: "ready",
			path: "/api/health/ready",
			setup: func(m *mockHealthService) {
				m.On("ReadinessCheck", mock.Anything).Return(services.HealthStatus{Status: "ready", Timestamp: now})
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "ready"},
		},
		{
			name: "not ready",
			path: "/api/health/ready",
			setup: func(m *mockHealthService) {
				m.On("ReadinessCheck", mock.Anything).Return(services.HealthStatus{Status: "not_ready", Timestamp: now})
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]interface{}{"status": "not_ready"},
		},
		{
			name: "live",
			path: "/api/health/live",
			setup: func(m *mockHealthService) {
				m.On("LivenessCheck", mock.Anything).Return(services.HealthStatus{Status: "alive", Timestamp: now})
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"status": "alive"},
		},
		{
			name: "version",
			path: "/api/version",
			setup: func(m *mockHealthService) {
				m.On("Version").Return(map[string]interface{}{"name": "InvestLens", "version": "1.0.0"})
			},
			wantStatus: http.StatusOK,
			wantBody:   map[string]interface{}{"name": "InvestLens", "version": "1.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockHealthService{}
			tt.setup(svc)
			h := NewHealthHandler(svc, testLogger(t))

			r := chi.NewRouter()
			r.Get("/api/health", h.HealthCheck)
			r.Get("/api/health/ready", h.ReadinessCheck)
			r.Get("/api/health/live", h.LivenessCheck)
			r.Get("/api/version", h.Version)

			rec := serve(t, r, http.MethodGet, tt.path, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			for k, v := range tt.wantBody {
				assert.Equal(t, v, body[k], k)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	t.Run("delegates to the exporter", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# HELP dataset_loads_total\n"))
		})
		rec := serve(t, NewMetricsHandler(exporter, testErrorHandler(t)), http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "dataset_loads_total")
	})

	t.Run("disabled", func(t *testing.T) {
		rec := serve(t, NewMetricsHandler(nil, testErrorHandler(t)), http.MethodGet, "/metrics", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
