// Package http is the admin surface of the player: status, live-reload
// events, the recent log, and the rescan/quit control signals.
package http

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	"skylt/internal/application/player"
)

type supervisorControl interface {
	Status() player.Status
	Queue() *player.Queue
}

// Handler exposes supervisor state and control over HTTP.
type Handler struct {
	supervisor supervisorControl
	hub        *Hub
	logs       *LogBuffer
	adminUser  string
	adminPass  string
}

// NewHandler wires HTTP handlers with the supervisor and its event hub.
func NewHandler(supervisor supervisorControl, hub *Hub, logs *LogBuffer, adminUser, adminPass string) *Handler {
	return &Handler{
		supervisor: supervisor,
		hub:        hub,
		logs:       logs,
		adminUser:  adminUser,
		adminPass:  adminPass,
	}
}

// Status handles GET /api/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.supervisor.Status())
}

// Rescan handles POST /api/rescan: an operator-requested content refresh.
func (h *Handler) Rescan(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="skylt"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.supervisor.Queue().Push(player.CmdRescan)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// Quit handles POST /api/quit: an operator-requested shutdown. It follows
// the same single control path as an OS termination signal.
func (h *Handler) Quit(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="skylt"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	h.supervisor.Queue().Push(player.CmdQuit)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// Log handles GET /api/log.
func (h *Handler) Log(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"lines": h.logs.Lines()})
}

// Events handles GET /api/events as a server-sent event stream. Every new
// active presentation produces a reload event.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// authorized checks HTTP basic auth against the configured admin
// credentials. With no credentials configured the device is assumed to sit
// on a private network and control endpoints stay open, matching the
// unattended deployment model.
func (h *Handler) authorized(r *http.Request) bool {
	if h.adminUser == "" && h.adminPass == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.adminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.adminPass)) == 1
	return userOK && passOK
}
