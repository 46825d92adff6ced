package api

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/matches"
	"gitea.kood.tech/petrkubec/roomies/models"
)

// MatchService is the application surface the handlers call into.
type MatchService interface {
	ComputeMatches(ctx context.Context, selfID string, opts matches.Options) (*matches.MatchList, error)
	SubmitAction(ctx context.Context, actorID, targetID, action string) (*interest.Submission, error)
	GetMutualMatches(ctx context.Context, userID string) ([]matches.MutualMatch, error)
	Compatibility(ctx context.Context, selfID, peerID string) (*matches.Compatibility, error)
	Profile(ctx context.Context, id string) (*models.Profile, error)
}

type handlers struct {
	svc MatchService
	log *zap.Logger
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /me
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())

	p, err := h.svc.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GET /matches?min_score=&limit=
func (h *handlers) listMatches(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())

	opts, ok := parseMatchOptions(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_query")
		return
	}

	list, err := h.svc.ComputeMatches(r.Context(), userID, opts)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func parseMatchOptions(r *http.Request) (matches.Options, bool) {
	var opts matches.Options
	q := r.URL.Query()

	if raw := q.Get("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return opts, false
		}
		opts.MinScore = &v
	}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return opts, false
		}
		opts.Limit = &v
	}
	return opts, true
}

// GET /matches/mutual
func (h *handlers) listMutual(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())

	mutual, err := h.svc.GetMutualMatches(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"matches": mutual})
}

// GET /compatibility/{peerID}
func (h *handlers) compatibility(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())

	res, err := h.svc.Compatibility(r.Context(), userID, chi.URLParam(r, "peerID"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type actionRequest struct {
	Action string `json:"action"`
}

// POST /interests/{targetID}
func (h *handlers) submitInterest(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())

	var req actionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	sub, err := h.svc.SubmitAction(r.Context(), userID, chi.URLParam(r, "targetID"), req.Action)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
