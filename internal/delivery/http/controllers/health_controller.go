package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"bloodbridge/internal/delivery/http/helpers"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthController struct {
	Logger  *slog.Logger
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

func NewHealthController(logger *slog.Logger, checks map[string]HealthCheck) *HealthController {
	return &HealthController{Logger: logger, Checks: checks, Timeout: 2 * time.Second}
}

// Health godoc
// @Summary Health check
// @Description Pings the database and, when configured, Redis.
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data maps each dependency to ok"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /healthz [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()

	status := make(map[string]string, len(c.Checks))
	for name, check := range c.Checks {
		if err := check(ctx); err != nil {
			c.Logger.WarnContext(ctx, "health check failed", "dependency", name, "err", err)
			helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeUnavailable, name+" unavailable")
			return
		}
		status[name] = "ok"
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, status)
}
