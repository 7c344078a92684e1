package http

import (
	"github.com/gorilla/mux"
)

// NewRouter configures the admin HTTP routes.
func NewRouter(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/status", handler.Status).Methods("GET")
	r.HandleFunc("/api/events", handler.Events).Methods("GET")
	r.HandleFunc("/api/log", handler.Log).Methods("GET")
	r.HandleFunc("/api/rescan", handler.Rescan).Methods("POST")
	r.HandleFunc("/api/quit", handler.Quit).Methods("POST")
	return r
}
