package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/sqlcomplete/internal/cli/output"
	"github.com/leapstack-labs/sqlcomplete/internal/session"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// CompleteRequest asks for the completions at Cursor in Text. A missing
// cursor means the end of the text.
type CompleteRequest struct {
	Text   string `json:"text"`
	Cursor *int   `json:"cursor,omitempty"`
}

// CompleteResponse lists completions best first.
type CompleteResponse struct {
	Matches []output.MatchView `json:"matches"`
}

// RecordRequest carries an executed statement.
type RecordRequest struct {
	Text string `json:"text"`
}

// HealthResponse reports the session being served.
type HealthResponse struct {
	Status  string `json:"status"`
	Session string `json:"session"`
	Scope   string `json:"scope"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handlers provides the HTTP handlers of the completion API.
type Handlers struct {
	session *session.Session
	logger  *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sess *session.Session, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{session: sess, logger: logger}
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Session: h.session.ID,
		Scope:   h.session.Scope,
	})
}

// Complete returns the completions for a buffer and cursor.
func (h *Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if !decode(w, r, &req) {
		return
	}
	cursor := -1
	if req.Cursor != nil {
		cursor = *req.Cursor
		if cursor < 0 {
			writeError(w, http.StatusBadRequest, session.ErrCursorOutOfRange)
			return
		}
	}

	matches, err := h.session.Complete(req.Text, cursor)
	if errors.Is(err, session.ErrCursorOutOfRange) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		h.logger.Error("completion failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, CompleteResponse{Matches: output.NewMatchViews(matches)})
}

// Record counts an executed statement towards usage ranking.
func (h *Handlers) Record(w http.ResponseWriter, r *http.Request) {
	var req RecordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.session.Record(r.Context(), req.Text); err != nil {
		h.logger.Error("failed to record usage", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh reloads the catalog.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Refresh(r.Context()); err != nil {
		h.logger.Error("catalog refresh failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
