package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/shelf/internal/domain/catalog"
	"github.com/okian/shelf/internal/domain/stats"
)

type criterionResponse struct {
	catalog.Criterion
	Key       string `json:"key"`
	TierColor string `json:"tierColor"`
	Evaluable bool   `json:"evaluable"`
}

func toCriteria(cs []catalog.Criterion) []criterionResponse {
	out := make([]criterionResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, criterionResponse{
			Criterion: c,
			Key:       c.Key().String(),
			TierColor: c.Tier.Color(),
			Evaluable: stats.Evaluable(c.Metric),
		})
	}
	return out
}

// handleGetCatalog handles GET /v1/catalog.
func (s *Server) handleGetCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toCriteria(s.deps.Catalog()))
}

// evaluateRequest asks which criteria a snapshot meets.
type evaluateRequest struct {
	Stats  stats.Snapshot `json:"stats"`
	Earned []string       `json:"earned" validate:"dive,required"`
}

// handlePostEvaluate handles POST /v1/evaluate. It never touches stored state.
func (s *Server) handlePostEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluate"

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateStruct(&req); err != nil {
		s.fail(w, r, wrapKind(op, ErrBadRequest, err))
		return
	}
	earned := make([]catalog.Key, 0, len(req.Earned))
	for _, raw := range req.Earned {
		key, err := catalog.ParseKey(raw)
		if err != nil {
			s.fail(w, r, wrapKind(op, ErrBadRequest, err))
			return
		}
		earned = append(earned, key)
	}
	writeJSON(w, http.StatusOK, toCriteria(s.deps.Evaluate(req.Stats, earned)))
}
