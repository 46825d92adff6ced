package interest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/graph-gophers/dataloader/v7"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/models"
)

// Repository persists interest actions. UpsertAction must be atomic per
// (actorID, targetID); the store does no locking of its own.
type Repository interface {
	// GetAction returns (nil, nil) when no action exists for the pair.
	GetAction(ctx context.Context, actorID, targetID string) (*models.InterestAction, error)
	UpsertAction(ctx context.Context, actorID, targetID string, action models.Action) (*models.InterestAction, error)
	ListOutgoing(ctx context.Context, actorID string, actions []models.Action) ([]models.InterestAction, error)
	// ListIncoming returns the actions of actorIDs toward targetID, in any order.
	ListIncoming(ctx context.Context, targetID string, actorIDs []string) ([]models.InterestAction, error)
}

// ProfileResolver resolves user identifiers. GetProfile returns an error
// wrapping models.ErrNotFound for unknown ids.
type ProfileResolver interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Store records directional interest actions and derives mutual matches from them.
type Store struct {
	repo     Repository
	profiles ProfileResolver
	log      *zap.Logger
}

func NewStore(repo Repository, profiles ProfileResolver, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{repo: repo, profiles: profiles, log: log}
}

// Submission is the outcome of submitting an action.
type Submission struct {
	Action models.InterestAction `json:"action"`
	Mutual bool                  `json:"mutual"`
}

// RecordAction upserts the action of actorID toward targetID.
func (s *Store) RecordAction(ctx context.Context, actorID, targetID string, action models.Action) (*models.InterestAction, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", models.ErrInvalidAction, action)
	}
	if actorID == targetID {
		return nil, fmt.Errorf("%w: user %s cannot act on themselves", models.ErrInvalidAction, actorID)
	}
	for _, id := range []string{actorID, targetID} {
		if _, err := s.profiles.GetProfile(ctx, id); err != nil {
			return nil, fmt.Errorf("resolving user %s: %w", id, err)
		}
	}

	rec, err := s.repo.UpsertAction(ctx, actorID, targetID, action)
	if err != nil {
		return nil, fmt.Errorf("upserting action %s -> %s: %w", actorID, targetID, err)
	}
	s.log.Debug("interest action recorded",
		zap.String("actor_id", actorID),
		zap.String("target_id", targetID),
		zap.String("action", string(action)),
	)
	return rec, nil
}

// Submit records the action and, for positive actions only, checks whether
// the target already reciprocated.
func (s *Store) Submit(ctx context.Context, actorID, targetID string, action models.Action) (*Submission, error) {
	rec, err := s.RecordAction(ctx, actorID, targetID, action)
	if err != nil {
		return nil, err
	}

	sub := &Submission{Action: *rec}
	if !rec.Action.Positive() {
		return sub, nil
	}

	reverse, err := s.repo.GetAction(ctx, targetID, actorID)
	if err != nil {
		return nil, fmt.Errorf("loading reverse action %s -> %s: %w", targetID, actorID, err)
	}
	sub.Mutual = reverse != nil && reverse.Action.Positive()
	if sub.Mutual {
		s.log.Info("mutual match", zap.String("user_id", actorID), zap.String("peer_id", targetID))
	}
	return sub, nil
}

// IsMutual reports whether both directions between the two users are positive.
func (s *Store) IsMutual(ctx context.Context, actorID, targetID string) (bool, error) {
	forward, err := s.repo.GetAction(ctx, actorID, targetID)
	if err != nil {
		return false, fmt.Errorf("loading action %s -> %s: %w", actorID, targetID, err)
	}
	if forward == nil || !forward.Action.Positive() {
		return false, nil
	}
	reverse, err := s.repo.GetAction(ctx, targetID, actorID)
	if err != nil {
		return false, fmt.Errorf("loading action %s -> %s: %w", targetID, actorID, err)
	}
	return reverse != nil && reverse.Action.Positive(), nil
}

// ActedOn returns the ids of every user userID has acted on, whatever the action.
func (s *Store) ActedOn(ctx context.Context, userID string) (map[string]struct{}, error) {
	all := []models.Action{models.ActionLike, models.ActionDislike, models.ActionSuperLike}
	outgoing, err := s.repo.ListOutgoing(ctx, userID, all)
	if err != nil {
		return nil, fmt.Errorf("listing actions of %s: %w", userID, err)
	}
	acted := make(map[string]struct{}, len(outgoing))
	for _, a := range outgoing {
		acted[a.TargetID] = struct{}{}
	}
	return acted, nil
}

// ListMutualMatches returns the users userID mutually matched with, most
// recent first. Reverse actions are fetched in a single batch.
func (s *Store) ListMutualMatches(ctx context.Context, userID string) ([]models.MutualMatch, error) {
	outgoing, err := s.repo.ListOutgoing(ctx, userID, models.PositiveActions)
	if err != nil {
		return nil, fmt.Errorf("listing likes of %s: %w", userID, err)
	}
	if len(outgoing) == 0 {
		return []models.MutualMatch{}, nil
	}

	peers := make([]string, len(outgoing))
	for i, a := range outgoing {
		peers[i] = a.TargetID
	}

	loader := dataloader.NewBatchedLoader(
		s.incomingBatchFn(userID),
		dataloader.WithBatchCapacity[string, *models.InterestAction](len(peers)),
	)
	reverse, errs := loader.LoadMany(ctx, peers)()
	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("loading reverse actions for %s: %w", userID, err)
		}
	}

	matches := make([]models.MutualMatch, 0, len(outgoing))
	for i, forward := range outgoing {
		back := reverse[i]
		if back == nil || !back.Action.Positive() {
			continue
		}
		matches = append(matches, models.MutualMatch{
			PeerID:    forward.TargetID,
			MatchedAt: later(forward.CreatedAt, back.CreatedAt),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchedAt.After(matches[j].MatchedAt)
	})
	return matches, nil
}

// incomingBatchFn loads the actions of a batch of peers toward userID.
func (s *Store) incomingBatchFn(userID string) dataloader.BatchFunc[string, *models.InterestAction] {
	return func(ctx context.Context, peerIDs []string) []*dataloader.Result[*models.InterestAction] {
		results := make([]*dataloader.Result[*models.InterestAction], len(peerIDs))
		for i := range results {
			results[i] = &dataloader.Result[*models.InterestAction]{}
		}

		actions, err := s.repo.ListIncoming(ctx, userID, peerIDs)
		if err != nil {
			for i := range results {
				results[i].Error = err
			}
			return results
		}

		byActor := make(map[string]*models.InterestAction, len(actions))
		for i := range actions {
			byActor[actions[i].ActorID] = &actions[i]
		}
		for i, peerID := range peerIDs {
			results[i].Data = byActor[peerID]
		}
		return results
	}
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
