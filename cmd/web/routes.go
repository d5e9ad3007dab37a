package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
	"github.com/AdamBeresnev/bracket-engine/internal/httputil"
	"github.com/AdamBeresnev/bracket-engine/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type application struct {
	brackets    *service.BracketService
	progression *service.ProgressionService
	sweeper     *service.ForfeitSweeper
	clock       clockwork.Clock
}

func (app *application) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Post("/bracket", app.generateBracket)
		r.Get("/bracket", app.getBracket)
		r.Get("/matches", app.listMatches)
		r.Post("/sweep", app.sweep)
	})

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Post("/result", app.resolveMatch)
		r.Post("/reports", app.submitReport)
		r.Post("/override", app.overrideDoubleForfeit)
	})

	return r
}

func idParam(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+what+" ID", err)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into dst. An empty body leaves dst untouched.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	httputil.BadRequest(w, "Invalid request body", err)
	return false
}

func (app *application) generateBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}
	var body struct {
		Regenerate bool `json:"regenerate"`
	}
	if !decode(w, r, &body) {
		return
	}

	matches, err := app.brackets.Generate(r.Context(), id, service.GenerateOptions{Regenerate: body.Regenerate})
	if err != nil {
		httputil.Error(w, "Failed to generate bracket", err)
		return
	}
	httputil.JSON(w, http.StatusCreated, matches)
}

func (app *application) getBracket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}
	view, err := app.brackets.GetBracket(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get bracket", err)
		return
	}
	httputil.JSON(w, http.StatusOK, view)
}

func (app *application) listMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}

	status := r.URL.Query().Get("status")
	if status != "" && status != string(bracket.MatchActive) {
		httputil.BadRequest(w, "Only status=active is supported", nil)
		return
	}

	matches, err := app.brackets.ListMatches(r.Context(), id, status != "")
	if err != nil {
		httputil.Error(w, "Failed to list matches", err)
		return
	}
	httputil.JSON(w, http.StatusOK, matches)
}

func (app *application) sweep(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "tournament")
	if !ok {
		return
	}

	now := app.clock.Now()
	results, err := app.sweeper.SweepExpired(r.Context(), id, now)
	if err != nil {
		httputil.Error(w, "Failed to sweep tournament", err)
		return
	}
	if results == nil {
		results = []service.ForfeitResult{}
	}
	httputil.JSON(w, http.StatusOK, map[string]any{
		"swept_at": now.UTC().Format(time.RFC3339),
		"results":  results,
	})
}

type resultRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
	Score1   *int      `json:"score1"`
	Score2   *int      `json:"score2"`
	Forfeit  bool      `json:"forfeit"`
}

func (req resultRequest) result() bracket.Result {
	return bracket.Result{Score1: req.Score1, Score2: req.Score2, Forfeit: req.Forfeit}
}

func (app *application) resolveMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "match")
	if !ok {
		return
	}
	var body resultRequest
	if !decode(w, r, &body) {
		return
	}
	if body.WinnerID == uuid.Nil {
		httputil.BadRequest(w, "winner_id is required", nil)
		return
	}

	res, err := app.progression.ResolveMatch(r.Context(), id, body.WinnerID, body.result())
	if err != nil {
		httputil.Error(w, "Failed to resolve match", err)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) submitReport(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "match")
	if !ok {
		return
	}
	var body struct {
		resultRequest
		ReporterID uuid.UUID `json:"reporter_id"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.ReporterID == uuid.Nil || body.WinnerID == uuid.Nil {
		httputil.BadRequest(w, "reporter_id and winner_id are required", nil)
		return
	}

	res, err := app.progression.SubmitReport(r.Context(), id, body.ReporterID, body.WinnerID, body.result())
	if err != nil {
		httputil.Error(w, "Failed to submit report", err)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}

func (app *application) overrideDoubleForfeit(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "match")
	if !ok {
		return
	}
	var body struct {
		AdvancingID *uuid.UUID `json:"advancing_id"`
		Notes       string     `json:"notes"`
	}
	if !decode(w, r, &body) {
		return
	}

	res, err := app.progression.OverrideDoubleForfeit(r.Context(), id, body.AdvancingID, body.Notes)
	if err != nil {
		httputil.Error(w, "Failed to override double forfeit", err)
		return
	}
	httputil.JSON(w, http.StatusOK, res)
}
