// Package api exposes a Timekeeper over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/gorilla/mux"

	"github.com/psantana5/timekeeper/internal/sysinfo"
	"github.com/psantana5/timekeeper/pkg/logging"
	"github.com/psantana5/timekeeper/pkg/report"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

// ListResponse is the body of list and stop-all responses
type ListResponse struct {
	Timings []report.Summary `json:"timings"`
	Count   int              `json:"count"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error string `json:"error"`
	Name  string `json:"name,omitempty"`
}

// HealthResponse is the body of /health
type HealthResponse struct {
	Status        string           `json:"status"`
	Label         string           `json:"label"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Running       int              `json:"running"`
	System        sysinfo.Snapshot `json:"system"`
}

// Handler serves timing requests against one Timekeeper
type Handler struct {
	tk      *timekeeper.Timekeeper
	printer *report.Printer
	logger  *logging.Logger
	started time.Time
}

// NewHandler creates a handler. Laps and stops are logged through logger.
func NewHandler(tk *timekeeper.Timekeeper, logger *logging.Logger) *Handler {
	return &Handler{
		tk:      tk,
		printer: report.NewPrinter(tk, logger),
		logger:  logger,
		started: time.Now(),
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	// stop-all before the parameterized routes
	r.HandleFunc("/timings/stop-all", h.StopAll).Methods("POST")
	r.HandleFunc("/timings", h.ListTimings).Methods("GET")
	r.HandleFunc("/timings", h.Clear).Methods("DELETE")
	r.HandleFunc("/timings/{name}", h.GetTiming).Methods("GET")
	r.HandleFunc("/timings/{name}/start", h.Start).Methods("POST")
	r.HandleFunc("/timings/{name}/lap", h.Lap).Methods("POST")
	r.HandleFunc("/timings/{name}/stop", h.Stop).Methods("POST")

	r.HandleFunc("/health", h.Health).Methods("GET")
}

// ListTimings returns all running timings sorted by name
func (h *Handler) ListTimings(w http.ResponseWriter, r *http.Request) {
	writeList(w, http.StatusOK, h.tk.Timings())
}

// GetTiming returns one running timing
func (h *Handler) GetTiming(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	timing, ok := h.tk.Get(name)
	if !ok {
		writeNotFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(timing))
}

// Start starts a timing, replacing a running one with the same name
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	timing := h.tk.Start(name)
	h.logger.Debug("Started timing", map[string]interface{}{
		"name":      name,
		"timing_id": timing.ID().String(),
	})
	writeJSON(w, http.StatusCreated, report.Summarize(timing))
}

// Lap records a lap on a running timing
func (h *Handler) Lap(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	timing, ok := h.printer.Lap(name)
	if !ok {
		writeNotFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(timing))
}

// Stop stops a running timing and returns it with its statistics
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	timing, ok := h.printer.Stop(name)
	if !ok {
		writeNotFound(w, name)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(timing))
}

// StopAll stops every running timing
func (h *Handler) StopAll(w http.ResponseWriter, r *http.Request) {
	timings := h.printer.StopAll()
	sort.Slice(timings, func(i, j int) bool { return timings[i].Name() < timings[j].Name() })
	writeList(w, http.StatusOK, timings)
}

// Clear drops every running timing without stopping it
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	dropped := h.tk.Len()
	h.tk.Clear()
	h.logger.Info("Cleared timings", map[string]interface{}{"dropped": dropped})
	w.WriteHeader(http.StatusNoContent)
}

// Health returns service status and host resources
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "healthy",
		Label:         h.tk.Label(),
		UptimeSeconds: time.Since(h.started).Seconds(),
		Running:       h.tk.Len(),
		System:        sysinfo.Collect(r.Context()),
	})
}

func writeList(w http.ResponseWriter, status int, timings []timekeeper.Timing) {
	writeJSON(w, status, ListResponse{
		Timings: report.SummarizeAll(timings),
		Count:   len(timings),
	})
}

func writeNotFound(w http.ResponseWriter, name string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error: timekeeper.ErrTimingNotFound.Error(),
		Name:  name,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
