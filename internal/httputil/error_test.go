package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Status(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"missing match", fmt.Errorf("%w: abc", bracket.ErrMatchNotFound), http.StatusNotFound},
		{"missing tournament", bracket.ErrTournamentNotFound, http.StatusNotFound},
		{"resolved", bracket.ErrAlreadyResolved, http.StatusConflict},
		{"bracket exists", bracket.ErrBracketExists, http.StatusConflict},
		{"lost race", store.ErrConflict, http.StatusConflict},
		{"bad winner", bracket.ErrInvalidWinner, http.StatusBadRequest},
		{"bad group config", bracket.ErrInvalidGroupConfig, http.StatusBadRequest},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, "request failed", tc.err)
			assert.Equal(t, tc.expected, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestError_MatchDetail(t *testing.T) {
	id := uuid.New()
	err := &bracket.MatchError{Err: bracket.ErrMatchNotReady, MatchID: id, Expected: "active", Actual: "pending"}

	rec := httptest.NewRecorder()
	Error(rec, "failed to resolve match", err)
	require.Equal(t, http.StatusConflict, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id.String(), body["match_id"])
	assert.Equal(t, "active", body["expected"])
	assert.Equal(t, "pending", body["actual"])
}

func TestError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, "failed", errors.New("password=hunter2"))
	assert.NotContains(t, rec.Body.String(), "hunter2")
}
