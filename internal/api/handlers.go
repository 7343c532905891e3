package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/calder-vis/motionlink/internal/command"
	"github.com/calder-vis/motionlink/internal/hid"
	"github.com/calder-vis/motionlink/internal/manager"
	"github.com/calder-vis/motionlink/internal/profile"
	"github.com/calder-vis/motionlink/internal/registry"
)

// healthCheckTimeout bounds each dependency probe so a dead broker or
// database cannot stall the health endpoint.
const healthCheckTimeout = 2 * time.Second

// handleHealth returns liveness information plus the state of each
// wired infrastructure dependency. A failing dependency degrades the
// overall status but never turns the endpoint into an error; the daemon
// itself is still serving.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.health))

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	for name, check := range s.health {
		if err := check.HealthCheck(ctx); err != nil {
			status = "degraded"
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	resp := map[string]any{
		"status":  status,
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if len(components) > 0 {
		resp["components"] = components
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleListDevices returns the configured device catalogue joined with
// live hardware presence.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.manager.Devices()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleStatus returns the active session's state and counters.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Snapshot())
}

// connectRequest is the body for POST /api/v1/connect.
type connectRequest struct {
	Device string `json:"device"`
}

// handleConnect opens a session for the named device. Any running
// session is closed first.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Device == "" {
		writeBadRequest(w, "device is required")
		return
	}

	id, err := s.manager.Connect(r.Context(), req.Device)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrUnknownDevice):
			writeNotFound(w, "unknown device")
		case errors.Is(err, hid.ErrDeviceNotPresent):
			writeConflict(w, "device not present")
		case errors.Is(err, hid.ErrDeviceBusy):
			writeConflict(w, "device busy")
		default:
			s.logger.Error("connect failed", "device", req.Device, "error", err)
			writeInternalError(w, "connect failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"device":     req.Device,
	})
}

// handleDisconnect stops the active session.
func (s *Server) handleDisconnect(w http.ResponseWriter, _ *http.Request) {
	if err := s.manager.Disconnect(); err != nil {
		if errors.Is(err, manager.ErrNoSession) {
			writeConflict(w, "no active session")
			return
		}
		writeInternalError(w, "disconnect failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "disconnected"})
}

// handleGetProfile returns a device's stored mapping profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeNotFound(w, "profile store not configured")
		return
	}

	device := chi.URLParam(r, "device")
	prof, err := s.profiles.Get(r.Context(), device)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			writeNotFound(w, "no profile stored for device")
			return
		}
		writeInternalError(w, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// handlePutProfile stores a device's mapping profile. The change takes
// effect on the next connect.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeNotFound(w, "profile store not configured")
		return
	}

	var prof profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&prof); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	switch prof.Mode {
	case "", profile.ModeVector, profile.ModeDominant:
	default:
		writeBadRequest(w, "axis_mode must be \"vector\" or \"dominant\"")
		return
	}

	// A template override must compile now; deferring the failure to the
	// next connect would turn a configuration defect into an opaque 500.
	if prof.Template != "" {
		if _, err := command.Parse(prof.Template); err != nil {
			writeBadRequest(w, "template: "+err.Error())
			return
		}
	}

	prof.Device = chi.URLParam(r, "device")
	if err := s.profiles.Put(r.Context(), &prof); err != nil {
		writeInternalError(w, "failed to store profile")
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

// handleDeleteProfile removes a device's stored profile, reverting it
// to defaults.
func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeNotFound(w, "profile store not configured")
		return
	}

	device := chi.URLParam(r, "device")
	if err := s.profiles.Delete(r.Context(), device); err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			writeNotFound(w, "no profile stored for device")
			return
		}
		writeInternalError(w, "failed to delete profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
