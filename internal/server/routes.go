package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/tidemark/internal/engine"
	"github.com/lazypower/tidemark/internal/signals"
)

func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	ids, err := s.db.ListPersonIDs()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"persons": ids})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	st, err := s.db.GetState(personID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "no state for "+personID)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetSignals(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	var rec *signals.Record
	var err error
	if week := r.URL.Query().Get("week"); week != "" {
		start, perr := time.Parse("2006-01-02", week)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "week must be YYYY-MM-DD")
			return
		}
		rec, err = s.db.GetSignals(personID, start)
	} else {
		rec, err = s.db.LatestSignals(personID)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "no signals for "+personID)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := s.db.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		out = append(out, map[string]any{
			"id":          run.ID,
			"component":   run.Component,
			"person_id":   run.PersonID,
			"started_at":  run.StartedAt,
			"finished_at": run.FinishedAt,
			"processed":   run.Processed,
			"updated":     run.Updated,
			"failed":      run.Failed,
			"status":      run.Status,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}

// handleTriggerRun runs a component synchronously and returns its result.
// component may be "all".
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not configured")
		return
	}

	var person *string
	if p := r.URL.Query().Get("person"); p != "" {
		person = &p
	}

	name := chi.URLParam(r, "component")
	var components []engine.Component
	if name == "all" {
		components = engine.Components
	} else {
		c, err := engine.ParseComponent(name)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		components = []engine.Component{c}
	}

	// Runs outlive the request: a dropped client does not cancel them.
	ctx := context.WithoutCancel(r.Context())

	var results []engine.RunResult
	for _, c := range components {
		res, err := s.engine.Run(ctx, c, person)
		if errors.Is(err, engine.ErrUnknownPerson) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			log.Printf("server: run %s: %v", c, err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
