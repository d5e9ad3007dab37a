package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
)

type errorBody struct {
	Error    string `json:"error"`
	MatchID  string `json:"match_id,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	JSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	JSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	JSON(w, http.StatusNotFound, errorBody{Error: msg})
}

// Error answers with the status that fits err: 404 for missing records, 409
// for requests that clash with the bracket's current state, 400 for invalid
// input and 500 for anything else.
func Error(w http.ResponseWriter, msg string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, msg, err)
		return
	}

	slog.Warn(msg, "status", status, "error", err)
	body := errorBody{Error: err.Error()}
	var matchErr *bracket.MatchError
	if errors.As(err, &matchErr) {
		body.MatchID = matchErr.MatchID.String()
		body.Expected = matchErr.Expected
		body.Actual = matchErr.Actual
	}
	JSON(w, status, body)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, bracket.ErrTournamentNotFound),
		errors.Is(err, bracket.ErrMatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrAlreadyResolved),
		errors.Is(err, bracket.ErrMatchNotReady),
		errors.Is(err, bracket.ErrSlotConflict),
		errors.Is(err, bracket.ErrNotDoubleForfeit),
		errors.Is(err, bracket.ErrBracketExists),
		errors.Is(err, bracket.ErrTournamentCompleted),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, bracket.ErrInvalidParticipantCount),
		errors.Is(err, bracket.ErrUnsupportedFormat),
		errors.Is(err, bracket.ErrUnsupportedSeedingPolicy),
		errors.Is(err, bracket.ErrInvalidGroupConfig),
		errors.Is(err, bracket.ErrInvalidWinner),
		errors.Is(err, bracket.ErrNotInMatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
