// Package memory is an in-process backend for profiles and interest actions,
// used for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitea.kood.tech/petrkubec/roomies/models"
)

type Store struct {
	mu       sync.RWMutex
	profiles map[string]models.Profile
	order    []string
	actions  map[models.PairKey]models.InterestAction
	now      func() time.Time
}

func New() *Store {
	return &Store{
		profiles: make(map[string]models.Profile),
		actions:  make(map[models.PairKey]models.InterestAction),
		now:      time.Now,
	}
}

// WithClock replaces the time source used for action timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// PutProfile inserts or replaces a profile. New profiles are listed after
// existing ones.
func (s *Store) PutProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.profiles[p.ID] = p
}

// SaveProfile stores p, assigning an id when it has none. The email is not
// kept in memory.
func (s *Store) SaveProfile(_ context.Context, p models.Profile, _ string) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		s.mu.RLock()
		now := s.now
		s.mu.RUnlock()
		p.CreatedAt = now().UTC()
	}
	s.PutProfile(p)
	return p.ID, nil
}

func (s *Store) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) GetProfiles(_ context.Context, ids []string) (map[string]*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (s *Store) ListProfiles(_ context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Profile, 0, len(s.order))
	for _, id := range s.order {
		if p := s.profiles[id]; filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) GetAction(_ context.Context, actorID, targetID string) (*models.InterestAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actions[models.PairKey{ActorID: actorID, TargetID: targetID}]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) UpsertAction(_ context.Context, actorID, targetID string, action models.Action) (*models.InterestAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := models.PairKey{ActorID: actorID, TargetID: targetID}
	now := s.now().UTC()
	a, ok := s.actions[key]
	if !ok {
		a = models.InterestAction{
			ID:        uuid.NewString(),
			ActorID:   actorID,
			TargetID:  targetID,
			CreatedAt: now,
		}
	}
	a.Action = action
	a.UpdatedAt = now
	s.actions[key] = a
	return &a, nil
}

func (s *Store) ListOutgoing(_ context.Context, actorID string, actions []models.Action) ([]models.InterestAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[models.Action]struct{}, len(actions))
	for _, a := range actions {
		wanted[a] = struct{}{}
	}

	var out []models.InterestAction
	for key, a := range s.actions {
		if key.ActorID != actorID {
			continue
		}
		if _, ok := wanted[a.Action]; ok {
			out = append(out, a)
		}
	}
	sortByCreated(out)
	return out, nil
}

func (s *Store) ListIncoming(_ context.Context, targetID string, actorIDs []string) ([]models.InterestAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.InterestAction
	for _, actorID := range actorIDs {
		if a, ok := s.actions[models.PairKey{ActorID: actorID, TargetID: targetID}]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func sortByCreated(actions []models.InterestAction) {
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].CreatedAt.Equal(actions[j].CreatedAt) {
			return actions[i].TargetID < actions[j].TargetID
		}
		return actions[i].CreatedAt.Before(actions[j].CreatedAt)
	})
}
