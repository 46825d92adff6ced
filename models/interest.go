package models

import (
	"fmt"
	"strings"
	"time"
)

// Action is a directional expression of interest from one user toward another.
type Action string

const (
	ActionLike      Action = "like"
	ActionDislike   Action = "dislike"
	ActionSuperLike Action = "super_like"
)

// PositiveActions are the actions that can take part in a mutual match.
var PositiveActions = []Action{ActionLike, ActionSuperLike}

// ParseAction validates a raw action value.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.TrimSpace(raw))
	if !a.Valid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidAction, raw)
	}
	return a, nil
}

func (a Action) Valid() bool {
	switch a {
	case ActionLike, ActionDislike, ActionSuperLike:
		return true
	}
	return false
}

// Positive is true for like and super_like.
func (a Action) Positive() bool {
	return a == ActionLike || a == ActionSuperLike
}

// InterestAction is the single stored action for an ordered (actor, target) pair.
type InterestAction struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	Action    Action    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PairKey identifies an interest action by its ordered pair.
type PairKey struct {
	ActorID  string
	TargetID string
}

// Reverse returns the key of the opposite direction.
func (k PairKey) Reverse() PairKey {
	return PairKey{ActorID: k.TargetID, TargetID: k.ActorID}
}

// MutualMatch is a derived view: both users acted positively toward each other.
type MutualMatch struct {
	PeerID    string    `json:"peer_id"`
	MatchedAt time.Time `json:"matched_at"`
}
