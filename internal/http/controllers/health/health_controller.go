// Package health contiene los endpoints de liveness y readiness.
package health

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/dashpay-relay/internal/http/dto"
	"github.com/dropDatabas3/dashpay-relay/internal/http/helpers"
	"github.com/dropDatabas3/dashpay-relay/internal/jwt"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

// CredentialSource expone la credencial actual (credstore.Store).
type CredentialSource interface {
	Current() *jwt.Credential
}

// SchedulerState reporta si el refresh scheduler está corriendo.
type SchedulerState interface {
	Running() bool
}

type Controller struct {
	creds     CredentialSource
	scheduler SchedulerState
	now       func() time.Time
}

// NewController crea el controller. scheduler puede ser nil.
func NewController(creds CredentialSource, scheduler SchedulerState) *Controller {
	return &Controller{creds: creds, scheduler: scheduler, now: time.Now}
}

// Healthz maneja GET /healthz (liveness, no mira dependencias).
func (c *Controller) Healthz(w http.ResponseWriter, _ *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz.
//   - ready: hay credencial vigente
//   - degraded: la credencial venció (el relay la regenera al primer 401)
//   - unavailable (503): no hay credencial en memoria
func (c *Controller) Readyz(w http.ResponseWriter, r *http.Request) {
	resp := dto.HealthResponse{Status: "ready"}
	now := c.now()

	if c.scheduler != nil {
		resp.Scheduler = "stopped"
		if c.scheduler.Running() {
			resp.Scheduler = "running"
		}
	}

	cred := c.creds.Current()
	switch {
	case cred == nil:
		resp.Status = "unavailable"
	default:
		state := &dto.CredentialState{KeyID: cred.KeyID}
		if !cred.Opaque() {
			state.IssuedAt = cred.IssuedAt
			state.ExpiresAt = cred.ExpiresAt
			state.ExpiresIn = int64(cred.TTL(now).Seconds())
			state.Expired = cred.Expired(now)
		}
		if state.Expired {
			resp.Status = "degraded"
		}
		resp.Credential = state
	}

	status := http.StatusOK
	if resp.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}

	logger.From(r.Context()).Debug("readiness check completed", logger.String("status", resp.Status))
	helpers.WriteJSON(w, status, resp)
}
