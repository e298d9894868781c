package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dcallahan/interaction-management/internal/domain"
	"github.com/dcallahan/interaction-management/internal/observability/errortrack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doError(t *testing.T, wr *Writer, err error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	wr.Error(rec, req, "test.Location", err)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestErrorStatusByKind(t *testing.T) {
	wr := NewWriter(nil)

	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation", domain.NewValidationError(map[string][]string{"f": {"bad"}}), http.StatusBadRequest, "validation"},
		{"authentication", domain.NewAuthenticationError("nope"), http.StatusUnauthorized, "authentication"},
		{"authorization", domain.NewAuthorizationError("nope"), http.StatusForbidden, "authorization"},
		{"site context", domain.NewSiteContextError("nope"), http.StatusForbidden, "site_context"},
		{"not found", domain.NewNotFoundError("widget"), http.StatusNotFound, "not_found"},
		{"conflict", domain.NewConflictError("taken"), http.StatusConflict, "conflict"},
		{"internal", domain.NewInternalError(errors.New("boom")), http.StatusInternalServerError, "internal"},
		{"plain error wrapped as internal", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doError(t, wr, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.kind, env.ErrorType)
			assert.False(t, env.Success)
		})
	}
}

func TestInternalErrorMessageHidden(t *testing.T) {
	wr := NewWriter(nil)

	_, env := doError(t, wr, domain.NewInternalError(errors.New("pq: connection refused")))
	assert.Equal(t, "internal server error", env.Message)
	assert.NotContains(t, env.Message, "pq:")
}

func TestValidationDetailsIncluded(t *testing.T) {
	wr := NewWriter(nil)

	_, env := doError(t, wr, domain.NewValidationError(map[string][]string{
		"title": {"title is required"},
	}))

	details, ok := env.Details.(map[string]any)
	require.True(t, ok)
	fields, ok := details["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fields, "title")
}

func TestErrorsAreTracked(t *testing.T) {
	tracker := errortrack.New(10, nil)
	wr := NewWriter(tracker)

	doError(t, wr, domain.NewInternalError(errors.New("boom")))
	doError(t, wr, domain.NewNotFoundError("widget"))

	assert.Equal(t, 2, tracker.Len())
	records := tracker.Snapshot()
	assert.True(t, records[0].Unhandled)
	assert.False(t, records[1].Unhandled)
}
