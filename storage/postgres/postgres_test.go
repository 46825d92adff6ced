package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/migrations"
	"gitea.kood.tech/petrkubec/roomies/models"
)

// openTestDB connects to ROOMIES_TEST_DATABASE_URL, migrates it and wipes it.
// Tests are skipped when the variable is unset.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("ROOMIES_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ROOMIES_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, dsn, Options{MaxOpenConns: 5}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Up(db))
	require.NoError(t, Truncate(ctx, db))
	return db
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func TestProfileRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewProfileRepository(db)

	aliceID, err := repo.SaveProfile(ctx, models.Profile{
		Name:        "Alice",
		Age:         intPtr(27),
		Gender:      strPtr("female"),
		Budget:      floatPtr(650),
		Cleanliness: intPtr(4),
		Vegetarian:  true,
		Complete:    true,
	}, "alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, aliceID)

	bobID, err := repo.SaveProfile(ctx, models.Profile{Name: "Bob", Gender: strPtr("male")}, "")
	require.NoError(t, err)

	t.Run("complete profile round trip", func(t *testing.T) {
		p, err := repo.GetProfile(ctx, aliceID)
		require.NoError(t, err)
		assert.True(t, p.Complete)
		assert.Equal(t, 27, *p.Age)
		assert.InDelta(t, 650.0, *p.Budget, 0.001)
		assert.Equal(t, 4, *p.Cleanliness)
		assert.Nil(t, p.SocialLevel)
		assert.True(t, p.Vegetarian)
	})

	t.Run("user without profile row is incomplete", func(t *testing.T) {
		p, err := repo.GetProfile(ctx, bobID)
		require.NoError(t, err)
		assert.False(t, p.Complete)
		assert.Nil(t, p.Budget)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := repo.GetProfile(ctx, "does-not-exist")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("batch load skips unknown ids", func(t *testing.T) {
		got, err := repo.GetProfiles(ctx, []string{aliceID, bobID, "nope"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, "Bob", got[bobID].Name)
	})

	t.Run("list applies filter", func(t *testing.T) {
		got, err := repo.ListProfiles(ctx, models.ProfileFilter{ExcludeID: bobID, CompleteOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, aliceID, got[0].ID)

		got, err = repo.ListProfiles(ctx, models.ProfileFilter{Gender: "male"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, bobID, got[0].ID)
	})
}

func TestInterestRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profiles := NewProfileRepository(db)
	repo := NewInterestRepository(db)

	a, err := profiles.SaveProfile(ctx, models.Profile{Name: "A", Complete: true}, "")
	require.NoError(t, err)
	b, err := profiles.SaveProfile(ctx, models.Profile{Name: "B", Complete: true}, "")
	require.NoError(t, err)

	missing, err := repo.GetAction(ctx, a, b)
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := repo.UpsertAction(ctx, a, b, models.ActionLike)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.UpsertAction(ctx, a, b, models.ActionDislike)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	assert.Equal(t, models.ActionDislike, second.Action)

	_, err = repo.UpsertAction(ctx, b, a, models.ActionSuperLike)
	require.NoError(t, err)

	out, err := repo.ListOutgoing(ctx, a, models.PositiveActions)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = repo.ListOutgoing(ctx, b, models.PositiveActions)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, a, out[0].TargetID)

	in, err := repo.ListIncoming(ctx, a, []string{b})
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, models.ActionSuperLike, in[0].Action)

	_, err = repo.UpsertAction(ctx, a, "ghost", models.ActionLike)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
