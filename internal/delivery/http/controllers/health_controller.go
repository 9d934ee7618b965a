package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	h "eventplatform/internal/delivery/http/helpers"
)

const healthCheckTimeout = 2 * time.Second

// HealthResponse is the data of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

type HealthController struct {
	Logger *slog.Logger
	// Ping checks the backing store; nil means nothing to check.
	Ping func(ctx context.Context) error
}

func NewHealthController(logger *slog.Logger, ping func(ctx context.Context) error) *HealthController {
	return &HealthController{
		Logger: logger,
		Ping:   ping,
	}
}

// Health godoc
// @Summary Health check
// @Description Reports whether the service and its store are reachable.
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status is ok"
// @Failure 503 {object} helpers.APIResponse "code: internal_error"
// @Router /healthz [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if c.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			c.Logger.ErrorContext(r.Context(), "health check failed", "err", err)
			h.WriteJSONError(w, http.StatusServiceUnavailable, h.ErrCodeInternalError, "store unavailable")
			return
		}
	}
	h.WriteJSONSuccess(w, http.StatusOK, HealthResponse{Status: "ok"})
}
