package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/shelf/internal/domain/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// activityRequest mirrors the OpenAPI schema for POST /v1/activities.
type activityRequest struct {
	ID         string `json:"id" validate:"omitempty,max=128"`
	UserID     string `json:"userId" validate:"required,max=128"`
	Kind       string `json:"kind" validate:"required,oneof=book_finished pages_read book_added review_written rating_given friend_connected"`
	BookID     string `json:"bookId" validate:"max=128"`
	Pages      int    `json:"pages" validate:"gte=0,lte=100000"`
	Genre      string `json:"genre" validate:"max=64"`
	Rating     int    `json:"rating" validate:"gte=0,lte=5"`
	OccurredAt string `json:"occurredAt" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// validateStruct runs struct tags and flattens the failures into one message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", fe.Field(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
	return fmt.Errorf("validation failed: %w", err)
}

// toActivity converts the request. A missing occurredAt means now.
func (req *activityRequest) toActivity(now time.Time) (model.Activity, error) {
	occurred := now
	if req.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			return model.Activity{}, errors.New("invalid occurredAt; must be RFC3339")
		}
		occurred = t
	}
	return model.Activity{
		ID:         strings.TrimSpace(req.ID),
		UserID:     strings.TrimSpace(req.UserID),
		Kind:       model.Kind(req.Kind),
		BookID:     req.BookID,
		Pages:      req.Pages,
		Genre:      req.Genre,
		Rating:     req.Rating,
		OccurredAt: occurred,
	}, nil
}

type ackResponse struct {
	Status     string `json:"status"`
	ActivityID string `json:"activityId"`
	Duplicate  bool   `json:"duplicate"`
}

// handlePostActivity handles POST /v1/activities.
func (s *Server) handlePostActivity(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_activity"

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateStruct(&req); err != nil {
		s.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	activity, err := req.toActivity(time.Now())
	if err != nil {
		s.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}

	ack, err := s.deps.RecordActivity(r.Context(), activity)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%s: %w", op, err))
		return
	}
	if ack.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ActivityID: ack.ActivityID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ActivityID: ack.ActivityID})
}
