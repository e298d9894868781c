// Package respond writes the standard response envelope and maps the
// application error taxonomy to HTTP statuses in one place.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dcallahan/interaction-management/internal/api/reqctx"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/errortrack"
	"github.com/go-chi/chi/v5/middleware"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	ErrorType string `json:"error_type,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// statusByKind is the single dispatch table from error kind to HTTP
// status.
var statusByKind = map[domain.ErrorKind]int{
	domain.KindValidation:     http.StatusBadRequest,
	domain.KindAuthentication: http.StatusUnauthorized,
	domain.KindAuthorization:  http.StatusForbidden,
	domain.KindSiteContext:    http.StatusForbidden,
	domain.KindNotFound:       http.StatusNotFound,
	domain.KindConflict:       http.StatusConflict,
	domain.KindInternal:       http.StatusInternalServerError,
}

// Writer holds the error tracker so every handler reports through the
// same bounded store.
type Writer struct {
	Tracker *errortrack.Tracker
}

func NewWriter(tracker *errortrack.Tracker) *Writer {
	return &Writer{Tracker: tracker}
}

func (wr *Writer) Success(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Paginated nests items and pagination metadata under data.
func (wr *Writer) Paginated(w http.ResponseWriter, message string, items any, pagination any) {
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data: map[string]any{
			"items":      items,
			"pagination": pagination,
		},
	})
}

// Error maps an application error to the envelope. Internal errors are
// rewritten to a generic message; their cause is logged and tracked but
// never sent to the client.
func (wr *Writer) Error(w http.ResponseWriter, r *http.Request, location string, err error) {
	appErr := domain.AsAppError(err)
	status := statusByKind[appErr.Kind]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	logArgs := []any{
		"request_id", middleware.GetReqID(r.Context()),
		"location", location,
		"error_type", string(appErr.Kind),
	}
	if actor, ok := reqctx.ActorFrom(r.Context()); ok {
		logArgs = append(logArgs, "user_id", actor.UserID)
	}
	if sc, ok := reqctx.SiteContextFrom(r.Context()); ok {
		logArgs = append(logArgs, "site_id", sc.SiteID)
	}

	message := appErr.Message
	unhandled := appErr.Kind == domain.KindInternal
	if unhandled {
		message = "internal server error"
		slog.Error("request failed", append(logArgs, "error", err)...)
	} else {
		slog.Info("request rejected", append(logArgs, "message", appErr.Message)...)
	}

	if wr.Tracker != nil {
		wr.Tracker.Track(appErr.Kind, appErr.Message, location, unhandled)
	}

	env := Envelope{
		Success:   false,
		Message:   message,
		ErrorType: string(appErr.Kind),
	}
	if appErr.Kind == domain.KindValidation && len(appErr.Fields) > 0 {
		env.Details = map[string]any{"errors": appErr.Fields}
	} else if len(appErr.Details) > 0 {
		env.Details = appErr.Details
	}
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
