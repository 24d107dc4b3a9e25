package handle

import (
	"net/http"

	"ride-sim/internal/ride-sim/core/domain/dto"
	"ride-sim/internal/ride-sim/core/ports/driver"
)

// Check reports the health of one optional dependency.
type Check func() error

type HealthHandler struct {
	session driver.ISessionController
	checks  map[string]Check
}

func NewHealthHandler(session driver.ISessionController, checks map[string]Check) *HealthHandler {
	return &HealthHandler{session: session, checks: checks}
}

// Health is 200 while the controller loop answers. Failing dependencies only
// degrade the status, since telemetry is optional.
func (h *HealthHandler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := dto.HealthResponse{Status: "ok"}

		snap, err := h.session.Snapshot(r.Context())
		if err != nil {
			resp.Status = "down"
			jsonResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.State = string(snap.State)

		if len(h.checks) > 0 {
			resp.Components = make(map[string]string, len(h.checks))
			for name, check := range h.checks {
				if err := check(); err != nil {
					resp.Components[name] = "down: " + err.Error()
					resp.Status = "degraded"
					continue
				}
				resp.Components[name] = "up"
			}
		}
		jsonResponse(w, http.StatusOK, resp)
	}
}
