package handle

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"ride-sim/internal/mylogger"
	"ride-sim/internal/ride-sim/core/domain/dto"
	"ride-sim/internal/ride-sim/core/domain/model"
	"ride-sim/internal/ride-sim/core/ports/driver"
)

type SessionHandler struct {
	session driver.ISessionController
	mylog   mylogger.Logger
}

func NewSessionHandler(session driver.ISessionController, mylog mylogger.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		mylog:   mylog,
	}
}

// StartSession is the popup "start" button.
func (h *SessionHandler) StartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.mylog.Action("start_session")

		if err := h.session.StartRide(r.Context()); err != nil {
			log.Error("failed to start ride", err)
			jsonError(w, statusFor(err), err)
			return
		}
		h.respondSnapshot(w, r, http.StatusAccepted)
	}
}

func (h *SessionHandler) SetPermission() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.mylog.Action("set_permission")

		var req dto.PermissionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
			return
		}
		status, err := model.ParsePermission(req.Status)
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		if err := h.session.PermissionChanged(r.Context(), status); err != nil {
			log.Error("failed to change permission", err)
			jsonError(w, statusFor(err), err)
			return
		}
		h.respondSnapshot(w, r, http.StatusOK)
	}
}

func (h *SessionHandler) UpdateLocation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.mylog.Action("update_location")

		var req dto.LocationRequest
		if err := decodeJSON(w, r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
			return
		}
		if req.Latitude == nil || req.Longitude == nil {
			jsonError(w, http.StatusBadRequest, errors.New("latitude and longitude are required"))
			return
		}

		coord := model.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude}
		if err := h.session.LocationUpdated(r.Context(), coord, time.Now()); err != nil {
			if statusFor(err) != http.StatusBadRequest {
				log.Error("failed to update location", err)
			}
			jsonError(w, statusFor(err), err)
			return
		}
		h.respondSnapshot(w, r, http.StatusOK)
	}
}

func (h *SessionHandler) GetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.respondSnapshot(w, r, http.StatusOK)
	}
}

func (h *SessionHandler) respondSnapshot(w http.ResponseWriter, r *http.Request, code int) {
	snap, err := h.session.Snapshot(r.Context())
	if err != nil {
		jsonError(w, statusFor(err), err)
		return
	}
	jsonResponse(w, code, snap)
}
