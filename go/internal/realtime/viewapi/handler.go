// Package viewapi serves a watched session over local HTTP: the current
// snapshot, the event log, connection status, outbound actions and a websocket
// stream for local viewers.
package viewapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/mcdev12/werewolf/go/internal/models"
	"github.com/mcdev12/werewolf/go/internal/realtime/actions"
	"github.com/mcdev12/werewolf/go/internal/realtime/reconciler"
	"github.com/mcdev12/werewolf/go/internal/realtime/transport"
	"github.com/rs/zerolog/log"
)

// Session is what the handler reads from and sends through.
type Session interface {
	GameID() string
	State() transport.State
	Stats() transport.Stats
	Reconciler() *reconciler.Reconciler
	Actions() *actions.Gateway
}

// StatusResponse describes the connection and log of the watched game
type StatusResponse struct {
	GameID         string          `json:"game_id"`
	State          string          `json:"state"`
	Connected      bool            `json:"connected"`
	HasSnapshot    bool            `json:"has_snapshot"`
	Events         int             `json:"events"`
	DroppedActions uint64          `json:"dropped_actions"`
	Transport      transport.Stats `json:"transport"`
}

// EventsResponse is a page of the event log starting at Since.
type EventsResponse struct {
	Since  int            `json:"since"`
	Next   int            `json:"next"`
	Events []models.Event `json:"events"`
}

// ActionRequest is the body of POST /api/action
type ActionRequest struct {
	ActionType string `json:"action_type"`
	TargetID   *int   `json:"target_id,omitempty"`
}

// SpeakRequest is the body of POST /api/speak
type SpeakRequest struct {
	Content string `json:"content"`
}

// SendResponse reports whether an outbound message reached an open connection.
type SendResponse struct {
	Sent bool `json:"sent"`
}

// Handler serves one session.
type Handler struct {
	session Session
	stream  *Stream
}

// NewHandler creates a handler for s.
func NewHandler(s Session, stream *Stream) *Handler {
	return &Handler{session: s, stream: stream}
}

// RegisterRoutes registers the view routes with mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/state", h.HandleGetState)
	mux.HandleFunc("GET /api/events", h.HandleGetEvents)
	mux.HandleFunc("GET /api/status", h.HandleGetStatus)
	mux.HandleFunc("POST /api/action", h.HandleSubmitAction)
	mux.HandleFunc("POST /api/speak", h.HandleSpeak)
	if h.stream != nil {
		mux.HandleFunc("GET /ws/view", h.stream.HandleConnection)
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// HandleGetState handles GET /api/state
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.session.Reconciler().Snapshot()
	if !ok {
		http.Error(w, "No snapshot received yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// HandleGetEvents handles GET /api/events?since=n
func (h *Handler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "Invalid since parameter", http.StatusBadRequest)
			return
		}
		since = n
	}

	events := h.session.Reconciler().EventsSince(since)
	writeJSON(w, http.StatusOK, EventsResponse{Since: since, Next: since + len(events), Events: events})
}

// HandleGetStatus handles GET /api/status
func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	rec := h.session.Reconciler()
	_, hasSnapshot := rec.Snapshot()
	state := h.session.State()

	writeJSON(w, http.StatusOK, StatusResponse{
		GameID:         h.session.GameID(),
		State:          state.String(),
		Connected:      state == transport.StateOpen,
		HasSnapshot:    hasSnapshot,
		Events:         rec.Len(),
		DroppedActions: h.session.Actions().Dropped(),
		Transport:      h.session.Stats(),
	})
}

// HandleSubmitAction handles POST /api/action
func (h *Handler) HandleSubmitAction(w http.ResponseWriter, r *http.Request) {
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ActionType) == "" {
		http.Error(w, "action_type is required", http.StatusBadRequest)
		return
	}

	sent := h.session.Actions().SubmitAction(req.ActionType, req.TargetID)
	writeJSON(w, http.StatusAccepted, SendResponse{Sent: sent})
}

// HandleSpeak handles POST /api/speak
func (h *Handler) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	var req SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sent := h.session.Actions().Speak(req.Content)
	writeJSON(w, http.StatusAccepted, SendResponse{Sent: sent})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
