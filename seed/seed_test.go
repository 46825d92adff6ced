package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/models"
	"gitea.kood.tech/petrkubec/roomies/storage/memory"
)

func TestGenerateIsDeterministic(t *testing.T) {
	opts := Options{Count: 40, Seed: 7, LikeRate: 0.2, DislikeRate: 0.1, IncompleteRate: 0.2}

	first, err := Generate(opts)
	require.NoError(t, err)
	second, err := Generate(opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	opts.Seed = 8
	other, err := Generate(opts)
	require.NoError(t, err)
	assert.NotEqual(t, first.Users[0].Profile.ID, other.Users[0].Profile.ID)
}

func TestGenerateShape(t *testing.T) {
	ds, err := Generate(Options{Count: 60, Seed: 1, LikeRate: 0.1, DislikeRate: 0.1, IncompleteRate: 0.3})
	require.NoError(t, err)
	require.Len(t, ds.Users, 60)

	assert.Equal(t, TestEmails[0], ds.Users[0].Email)
	assert.Equal(t, TestEmails[1], ds.Users[1].Email)
	assert.True(t, ds.Users[0].Profile.Complete)
	assert.True(t, ds.Users[1].Profile.Complete)

	ids := map[string]bool{}
	emails := map[string]bool{}
	complete := map[string]bool{}
	for _, u := range ds.Users {
		assert.False(t, ids[u.Profile.ID], "duplicate id %s", u.Profile.ID)
		assert.False(t, emails[u.Email], "duplicate email %s", u.Email)
		ids[u.Profile.ID] = true
		emails[u.Email] = true
		complete[u.Profile.ID] = u.Profile.Complete
		if u.Profile.Cleanliness != nil {
			assert.GreaterOrEqual(t, *u.Profile.Cleanliness, 1)
			assert.LessOrEqual(t, *u.Profile.Cleanliness, 5)
		}
	}

	for _, a := range ds.Actions {
		assert.NotEqual(t, a.ActorID, a.TargetID)
		assert.True(t, a.Action.Valid())
		assert.True(t, complete[a.ActorID], "incomplete user %s acted", a.ActorID)
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	for _, opts := range []Options{
		{Count: 1},
		{Count: 10, LikeRate: 1.5},
		{Count: 10, LikeRate: 0.6, DislikeRate: 0.6},
	} {
		_, err := Generate(opts)
		assert.Error(t, err)
	}
}

func TestApplyMakesTestUsersMutual(t *testing.T) {
	ctx := context.Background()
	ds, err := Generate(Options{Count: 20, Seed: 3, LikeRate: 0.1, DislikeRate: 0.05})
	require.NoError(t, err)

	mem := memory.New()
	store := interest.NewStore(mem, mem, nil)
	require.NoError(t, Apply(ctx, ds, mem, store, zap.NewNop()))

	mutual, err := store.IsMutual(ctx, ds.Users[0].Profile.ID, ds.Users[1].Profile.ID)
	require.NoError(t, err)
	assert.True(t, mutual)

	listed, err := mem.ListProfiles(ctx, models.ProfileFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 20)
}
