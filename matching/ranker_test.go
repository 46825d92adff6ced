package matching

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.kood.tech/petrkubec/roomies/models"
)

func TestRankFiltersSortsAndLimits(t *testing.T) {
	self := models.Profile{ID: "self", Budget: floatPtr(1000), Cleanliness: intPtr(4)}
	candidates := []models.Profile{
		{ID: "far-budget", Budget: floatPtr(2600), Cleanliness: intPtr(1), Smoker: true, HasPets: true},
		{ID: "close", Budget: floatPtr(1050), Cleanliness: intPtr(4)},
		{ID: "medium", Budget: floatPtr(1400), Cleanliness: intPtr(3)},
	}

	matched := Rank(self, candidates, DefaultMinScore, DefaultLimit)
	require.Len(t, matched, 2)
	assert.Equal(t, "close", matched[0].Candidate.ID)
	assert.Equal(t, "medium", matched[1].Candidate.ID)
	assert.GreaterOrEqual(t, matched[0].Score, matched[1].Score)
	assert.Equal(t, LevelFor(matched[0].Score), matched[0].Level)

	limited := Rank(self, candidates, DefaultMinScore, 1)
	require.Len(t, limited, 1)
	assert.Equal(t, "close", limited[0].Candidate.ID)
}

func TestRankStableOnTies(t *testing.T) {
	self := models.Profile{ID: "self"}
	var candidates []models.Profile
	for i := 0; i < 6; i++ {
		candidates = append(candidates, models.Profile{ID: fmt.Sprintf("c%d", i)})
	}

	matched := Rank(self, candidates, 0, 10)
	require.Len(t, matched, 6)
	for i, m := range matched {
		assert.Equal(t, fmt.Sprintf("c%d", i), m.Candidate.ID)
	}
}

func TestRankEdgeCases(t *testing.T) {
	self := models.Profile{ID: "self"}
	candidates := []models.Profile{{ID: "a"}, {ID: "b"}}

	t.Run("non-positive limit", func(t *testing.T) {
		assert.Empty(t, Rank(self, candidates, 0, 0))
		assert.Empty(t, Rank(self, candidates, 0, -3))
	})

	t.Run("threshold above 100", func(t *testing.T) {
		matched := Rank(self, candidates, 101, 10)
		assert.NotNil(t, matched)
		assert.Empty(t, matched)
	})

	t.Run("negative threshold keeps everything", func(t *testing.T) {
		assert.Len(t, Rank(self, candidates, -10, 10), 2)
	})

	t.Run("no candidates", func(t *testing.T) {
		assert.Empty(t, Rank(self, nil, DefaultMinScore, DefaultLimit))
	})
}

func TestRankOrderingProperties(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 50; round++ {
		self := randomProfile(r)
		candidates := make([]models.Profile, 20)
		for i := range candidates {
			candidates[i] = randomProfile(r)
			candidates[i].ID = fmt.Sprintf("c%d", i)
		}
		minScore := float64(r.Intn(90))
		limit := 1 + r.Intn(12)

		matched := Rank(self, candidates, minScore, limit)
		require.LessOrEqual(t, len(matched), limit)
		for i, m := range matched {
			require.GreaterOrEqual(t, m.Score, minScore)
			if i > 0 {
				require.GreaterOrEqual(t, matched[i-1].Score, m.Score)
			}
		}
	}
}
