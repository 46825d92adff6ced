package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gitea.kood.tech/petrkubec/roomies/models"
)

// InterestRepository persists directed interest actions in interest_actions.
// (actor_id, target_id) is unique, so each ordered pair has one current row.
type InterestRepository struct {
	db *sql.DB
}

func NewInterestRepository(db *sql.DB) *InterestRepository {
	return &InterestRepository{db: db}
}

const actionColumns = `id, actor_id, target_id, action, created_at, updated_at`

func scanAction(row rowScanner) (*models.InterestAction, error) {
	var (
		a      models.InterestAction
		action string
	)
	if err := row.Scan(&a.ID, &a.ActorID, &a.TargetID, &action, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Action = models.Action(action)
	return &a, nil
}

func (r *InterestRepository) GetAction(ctx context.Context, actorID, targetID string) (*models.InterestAction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+actionColumns+`
		FROM interest_actions
		WHERE actor_id = $1 AND target_id = $2
	`, actorID, targetID)
	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading action %s->%s: %w", actorID, targetID, err)
	}
	return a, nil
}

// UpsertAction inserts or overwrites the action for the pair. created_at is
// kept from the first insert; updated_at moves on every write.
func (r *InterestRepository) UpsertAction(ctx context.Context, actorID, targetID string, action models.Action) (*models.InterestAction, error) {
	var out *models.InterestAction
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO interest_actions (actor_id, target_id, action)
			VALUES ($1, $2, $3)
			ON CONFLICT (actor_id, target_id)
			DO UPDATE SET action = EXCLUDED.action, updated_at = clock_timestamp()
			RETURNING `+actionColumns,
			actorID, targetID, string(action),
		)
		a, err := scanAction(row)
		if err != nil {
			var pqErr *pq.Error
			// 23503 = foreign_key_violation
			if errors.As(err, &pqErr) && pqErr.Code == "23503" {
				return fmt.Errorf("user for action %s->%s: %w", actorID, targetID, models.ErrNotFound)
			}
			return fmt.Errorf("upserting action: %w", err)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *InterestRepository) ListOutgoing(ctx context.Context, actorID string, actions []models.Action) ([]models.InterestAction, error) {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+actionColumns+`
		FROM interest_actions
		WHERE actor_id = $1 AND action = ANY($2)
		ORDER BY created_at, target_id
	`, actorID, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("listing outgoing actions: %w", err)
	}
	return collectActions(rows)
}

func (r *InterestRepository) ListIncoming(ctx context.Context, targetID string, actorIDs []string) ([]models.InterestAction, error) {
	if len(actorIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+actionColumns+`
		FROM interest_actions
		WHERE target_id = $1 AND actor_id = ANY($2)
	`, targetID, pq.Array(actorIDs))
	if err != nil {
		return nil, fmt.Errorf("listing incoming actions: %w", err)
	}
	return collectActions(rows)
}

func collectActions(rows *sql.Rows) ([]models.InterestAction, error) {
	defer rows.Close()
	var out []models.InterestAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
