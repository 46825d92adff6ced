// Package matches answers match queries for a user: ranked candidates, mutual
// matches and pairwise compatibility.
package matches

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/matching"
	"gitea.kood.tech/petrkubec/roomies/models"
)

// anyGender disables the gender pre-filter.
const anyGender = "any"

// ProfileRepository is the read side of profile storage.
type ProfileRepository interface {
	// GetProfile returns an error wrapping models.ErrNotFound for unknown ids.
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	// GetProfiles omits unknown ids from the result.
	GetProfiles(ctx context.Context, ids []string) (map[string]*models.Profile, error)
	ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error)
}

// Config holds the defaults applied when a query leaves options unset.
type Config struct {
	MinScore float64
	Limit    int
	// ExcludeActed drops candidates the user already liked or disliked.
	ExcludeActed bool
}

// Options are the per-query overrides. Nil means use the configured default.
type Options struct {
	MinScore *float64
	Limit    *int
}

// RankedMatch is one entry of a match list.
type RankedMatch struct {
	Peer    models.Profile `json:"peer"`
	Score   float64        `json:"score"`
	Level   matching.Level `json:"level"`
	Summary string         `json:"summary"`
}

type MatchList struct {
	Matches []RankedMatch  `json:"matches"`
	Self    models.Profile `json:"self"`
	Total   int            `json:"total"`
}

type MutualMatch struct {
	Peer      models.Profile `json:"peer"`
	MatchedAt time.Time      `json:"matched_at"`
}

type Compatibility struct {
	PeerID    string                    `json:"peer_id"`
	Score     float64                   `json:"score"`
	Level     matching.Level            `json:"level"`
	Breakdown []matching.CriterionScore `json:"breakdown"`
}

type Service struct {
	profiles  ProfileRepository
	interests *interest.Store
	cfg       Config
	log       *zap.Logger
}

func NewService(profiles ProfileRepository, interests *interest.Store, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{profiles: profiles, interests: interests, cfg: cfg, log: log}
}

// completeProfile resolves id and requires a finished profile.
func (s *Service) completeProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, err := s.profiles.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Complete {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrProfileIncomplete)
	}
	return p, nil
}

// ComputeMatches ranks every complete candidate against selfID.
func (s *Service) ComputeMatches(ctx context.Context, selfID string, opts Options) (*MatchList, error) {
	self, err := s.completeProfile(ctx, selfID)
	if err != nil {
		return nil, err
	}

	minScore, limit := s.cfg.MinScore, s.cfg.Limit
	if opts.MinScore != nil {
		minScore = *opts.MinScore
	}
	if opts.Limit != nil {
		limit = *opts.Limit
	}

	filter := models.ProfileFilter{ExcludeID: self.ID, CompleteOnly: true}
	if pref := self.GenderPreference; pref != nil && *pref != "" && *pref != anyGender {
		filter.Gender = *pref
	}
	candidates, err := s.profiles.ListProfiles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing candidates for %s: %w", selfID, err)
	}

	if s.cfg.ExcludeActed {
		acted, err := s.interests.ActedOn(ctx, self.ID)
		if err != nil {
			return nil, err
		}
		kept := candidates[:0]
		for _, c := range candidates {
			if _, done := acted[c.ID]; !done {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	ranked := matching.Rank(*self, candidates, minScore, limit)
	out := &MatchList{
		Matches: make([]RankedMatch, 0, len(ranked)),
		Self:    *self,
		Total:   len(ranked),
	}
	for _, m := range ranked {
		out.Matches = append(out.Matches, RankedMatch{
			Peer:    m.Candidate,
			Score:   m.Score,
			Level:   m.Level,
			Summary: matching.Summarize(m.Candidate),
		})
	}

	s.log.Debug("matches computed",
		zap.String("user_id", selfID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", out.Total),
		zap.Float64("min_score", minScore),
		zap.Int("limit", limit),
	)
	return out, nil
}

// SubmitAction parses the raw action and records it.
func (s *Service) SubmitAction(ctx context.Context, actorID, targetID, action string) (*interest.Submission, error) {
	a, err := models.ParseAction(action)
	if err != nil {
		return nil, err
	}
	return s.interests.Submit(ctx, actorID, targetID, a)
}

// GetMutualMatches returns the mutual matches of userID with peer profiles
// hydrated, most recent first.
func (s *Service) GetMutualMatches(ctx context.Context, userID string) ([]MutualMatch, error) {
	if _, err := s.profiles.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	mutual, err := s.interests.ListMutualMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(mutual) == 0 {
		return []MutualMatch{}, nil
	}

	ids := make([]string, len(mutual))
	for i, m := range mutual {
		ids[i] = m.PeerID
	}
	peers, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading mutual match profiles for %s: %w", userID, err)
	}

	out := make([]MutualMatch, 0, len(mutual))
	for _, m := range mutual {
		peer, ok := peers[m.PeerID]
		if !ok {
			// Peer deleted after the match was made.
			s.log.Warn("mutual match peer missing", zap.String("user_id", userID), zap.String("peer_id", m.PeerID))
			continue
		}
		out = append(out, MutualMatch{Peer: *peer, MatchedAt: m.MatchedAt})
	}
	return out, nil
}

// loadProfiles goes through the request's profile loader when there is one.
func (s *Service) loadProfiles(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	l := LoadersFrom(ctx)
	if l == nil {
		return s.profiles.GetProfiles(ctx, ids)
	}

	loaded, errs := l.Profiles.LoadMany(ctx, ids)()
	out := make(map[string]*models.Profile, len(ids))
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		if loaded[i] != nil {
			out[id] = loaded[i]
		}
	}
	return out, nil
}

// Profile returns the stored profile of id, finished or not.
func (s *Service) Profile(ctx context.Context, id string) (*models.Profile, error) {
	return s.profiles.GetProfile(ctx, id)
}

// Compatibility scores one pair and explains the result per criterion.
func (s *Service) Compatibility(ctx context.Context, selfID, peerID string) (*Compatibility, error) {
	self, err := s.completeProfile(ctx, selfID)
	if err != nil {
		return nil, err
	}
	peer, err := s.completeProfile(ctx, peerID)
	if err != nil {
		return nil, err
	}

	res := matching.Score(*self, *peer)
	return &Compatibility{
		PeerID:    peer.ID,
		Score:     res.Score,
		Level:     res.Level,
		Breakdown: res.Breakdown,
	}, nil
}
