package handlers

import (
	"net/http"

	"github.com/dcallahan/interaction-management/internal/api/respond"
	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/errortrack"
)

// AdminHandler exposes diagnostics that are limited to system admins.
type AdminHandler struct {
	tracker *errortrack.Tracker
	wr      *respond.Writer
}

func NewAdminHandler(tracker *errortrack.Tracker, wr *respond.Writer) *AdminHandler {
	return &AdminHandler{tracker: tracker, wr: wr}
}

// Errors returns the tracked error fingerprints.
func (h *AdminHandler) Errors(w http.ResponseWriter, r *http.Request) {
	actor, err := requestActor(r)
	if err != nil {
		h.wr.Error(w, r, "AdminHandler.Errors", err)
		return
	}
	if !actor.IsAdmin {
		h.wr.Error(w, r, "AdminHandler.Errors", domain.NewAuthorizationError("diagnostics require system admin"))
		return
	}

	records := []errortrack.Record{}
	if h.tracker != nil {
		records = h.tracker.Snapshot()
	}
	h.wr.Success(w, http.StatusOK, "tracked errors", records)
}
