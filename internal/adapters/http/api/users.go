package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/okian/shelf/internal/domain/badge"
	"github.com/okian/shelf/pkg/logger"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

type profileResponse struct {
	UserID     string        `json:"userId"`
	Activities int64         `json:"activities"`
	Stats      any           `json:"stats"`
	Genres     []string      `json:"genres"`
	Streak     any           `json:"streak"`
	Badges     []badge.Badge `json:"badges"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// handleGetProfile handles GET /v1/users/{userID}.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	p, err := s.deps.Profile(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.deps.Streak(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	badges := p.Badges
	if badges == nil {
		badges = []badge.Badge{}
	}
	writeJSON(w, http.StatusOK, profileResponse{
		UserID:     p.UserID,
		Activities: p.Activities,
		Stats:      p.Tally.Snapshot(view.EffectiveStreak),
		Genres:     p.Tally.GenreList(),
		Streak:     view,
		Badges:     badges,
		UpdatedAt:  p.UpdatedAt,
	})
}

// handleGetBadges handles GET /v1/users/{userID}/badges.
func (s *Server) handleGetBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := s.deps.Badges(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// handleGetStreak handles GET /v1/users/{userID}/streak.
func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	view, err := s.deps.Streak(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetProgress handles GET /v1/users/{userID}/progress.
func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.deps.Progress(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type streamMessage struct {
	Type   string      `json:"type"`
	UserID string      `json:"userId"`
	Badge  badge.Badge `json:"badge"`
}

// handleStream handles GET /v1/users/{userID}/stream, pushing badge earned
// events over a websocket until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", logger.String("user_id", userID), logger.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	events, cancel := s.deps.Subscribe(userID)
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()

	// The read loop only notices the client closing.
	go func() {
		defer stop()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Debug(ctx, "stream opened", logger.String("user_id", userID))
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(streamMessage{Type: "badge_earned", UserID: e.UserID, Badge: e.Badge}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
