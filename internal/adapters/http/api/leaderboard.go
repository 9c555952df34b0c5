package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

const defaultLeaderboardLimit = 10

// handleListLeaderboards handles GET /v1/leaderboards.
func (s *Server) handleListLeaderboards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"boards": s.deps.Leaderboards()})
}

// handleGetLeaderboard handles GET /v1/leaderboards/{board}?limit=N.
func (s *Server) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"

	n := defaultLeaderboardLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			s.fail(w, r, wrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer")))
			return
		}
		n = parsed
	}
	if maxLimit := s.deps.MaxLeaderboardLimit(); n > maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			wrapKind(op, ErrBadRequest, errors.New("limit exceeds maximum of "+strconv.Itoa(maxLimit))))
		return
	}

	entries, err := s.deps.Leaderboard(r.Context(), mux.Vars(r)["board"], n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetRank handles GET /v1/leaderboards/{board}/users/{userID}.
func (s *Server) handleGetRank(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	entry, err := s.deps.Rank(r.Context(), vars["board"], vars["userID"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
