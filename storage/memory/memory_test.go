package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.kood.tech/petrkubec/roomies/models"
)

func TestGetProfileNotFound(t *testing.T) {
	s := New()
	_, err := s.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListProfilesAppliesFilterInInsertionOrder(t *testing.T) {
	female := "female"
	s := New()
	s.PutProfile(models.Profile{ID: "a", Complete: true, Gender: &female})
	s.PutProfile(models.Profile{ID: "b", Complete: false, Gender: &female})
	s.PutProfile(models.Profile{ID: "c", Complete: true})
	s.PutProfile(models.Profile{ID: "d", Complete: true, Gender: &female})

	got, err := s.ListProfiles(context.Background(), models.ProfileFilter{ExcludeID: "a", CompleteOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "d", got[1].ID)

	got, err = s.ListProfiles(context.Background(), models.ProfileFilter{CompleteOnly: true, Gender: female})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestUpsertActionKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s := New().WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	first, err := s.UpsertAction(ctx, "a", "b", models.ActionLike)
	require.NoError(t, err)
	second, err := s.UpsertAction(ctx, "a", "b", models.ActionDislike)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, models.ActionDislike, second.Action)

	stored, err := s.GetAction(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, *second, *stored)

	missing, err := s.GetAction(ctx, "b", "a")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertActionConcurrentSamePair(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			action := models.ActionLike
			if i%2 == 0 {
				action = models.ActionDislike
			}
			_, err := s.UpsertAction(ctx, "a", "b", action)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	out, err := s.ListOutgoing(ctx, "a", []models.Action{models.ActionLike, models.ActionDislike})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestListOutgoingAndIncoming(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, _ = s.UpsertAction(ctx, "a", "b", models.ActionLike)
	_, _ = s.UpsertAction(ctx, "a", "c", models.ActionDislike)
	_, _ = s.UpsertAction(ctx, "a", "d", models.ActionSuperLike)
	_, _ = s.UpsertAction(ctx, "b", "a", models.ActionLike)
	_, _ = s.UpsertAction(ctx, "d", "a", models.ActionDislike)

	out, err := s.ListOutgoing(ctx, "a", models.PositiveActions)
	require.NoError(t, err)
	targets := []string{}
	for _, a := range out {
		targets = append(targets, a.TargetID)
	}
	assert.ElementsMatch(t, []string{"b", "d"}, targets)

	in, err := s.ListIncoming(ctx, "a", []string{"b", "c", "d"})
	require.NoError(t, err)
	actors := []string{}
	for _, a := range in {
		actors = append(actors, a.ActorID)
	}
	assert.ElementsMatch(t, []string{"b", "d"}, actors)
}
