package in

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	hostin "hostbridge/internal/modules/host/port/in"
	orchestratorin "hostbridge/internal/modules/orchestrator/port/in"
)

var (
	errHeadNotFound   = errors.New("head not found")
	errHeadNotEndable = errors.New("head has no subscription to end")
	errTelemetryBody  = errors.New(`body must be {"enabled": true|false}`)
)

// subscriptionState is what a head's state exposes when it tracks an open
// telemetry subscription.
type subscriptionState interface {
	Unsubscribe()
}

// StatusHandler exposes bridge status over HTTP. With a non-nil control it
// also lets an operator change host-side state.
type StatusHandler struct {
	host    hostin.Usecase
	heads   orchestratorin.Usecase
	control hostin.Control
}

func NewStatusHandler(host hostin.Usecase, heads orchestratorin.Usecase, control hostin.Control) StatusHandler {
	return StatusHandler{host: host, heads: heads, control: control}
}

type versionResponse struct {
	Mode          string `json:"mode"`
	Platform      string `json:"platform"`
	Version       string `json:"version"`
	BridgeType    string `json:"bridge_type"`
	BridgeVersion string `json:"bridge_version"`
}

type headResponse struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	StartedAt time.Time `json:"started_at"`
}

type telemetryRequest struct {
	Enabled *bool `json:"enabled"`
}

type telemetryResponse struct {
	Setting string `json:"setting"`
	Enabled bool   `json:"enabled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h StatusHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Route("/v1", func(api chi.Router) {
		api.Get("/host/version", h.version)
		api.Get("/heads", h.listHeads)
		api.Get("/heads/{head_id}", h.getHead)
		api.Delete("/heads/{head_id}", h.endHead)
		if h.control != nil {
			api.Put("/host/telemetry", h.setTelemetry)
		}
	})
	return r
}

func (h StatusHandler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h StatusHandler) version(w http.ResponseWriter, r *http.Request) {
	v, err := h.host.HostVersion(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, versionResponse{
		Mode:          h.host.Mode(),
		Platform:      v.Platform,
		Version:       v.Version,
		BridgeType:    v.BridgeType,
		BridgeVersion: v.BridgeVersion,
	})
}

func (h StatusHandler) listHeads(w http.ResponseWriter, r *http.Request) {
	heads := h.heads.ListHeads(r.Context())
	out := make([]headResponse, 0, len(heads))
	for _, head := range heads {
		out = append(out, headResponse{ID: head.ID, Label: head.Label, StartedAt: head.StartedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"heads": out})
}

func (h StatusHandler) getHead(w http.ResponseWriter, r *http.Request) {
	head, ok := h.heads.Head(r.Context(), chi.URLParam(r, "head_id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errHeadNotFound.Error()})
		return
	}
	writeJSON(w, http.StatusOK, headResponse{ID: head.ID, Label: head.Label, StartedAt: head.StartedAt})
}

// endHead ends the subscription a head tracks. The serving stream then
// finishes and deregisters the head itself.
func (h StatusHandler) endHead(w http.ResponseWriter, r *http.Request) {
	state, ok := h.heads.HeadState(r.Context(), chi.URLParam(r, "head_id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errHeadNotFound.Error()})
		return
	}
	sub, ok := state.(subscriptionState)
	if !ok {
		writeJSON(w, http.StatusConflict, errorResponse{Error: errHeadNotEndable.Error()})
		return
	}
	sub.Unsubscribe()
	w.WriteHeader(http.StatusNoContent)
}

func (h StatusHandler) setTelemetry(w http.ResponseWriter, r *http.Request) {
	var req telemetryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errTelemetryBody.Error()})
		return
	}
	ev, err := h.control.SetTelemetryEnabled(r.Context(), *req.Enabled)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, telemetryResponse{Setting: ev.Setting, Enabled: ev.Enabled})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}
