package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitea.kood.tech/petrkubec/roomies/models"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func breakdownByName(t *testing.T, r Result) map[string]CriterionScore {
	t.Helper()
	out := make(map[string]CriterionScore, len(r.Breakdown))
	for _, c := range r.Breakdown {
		out[c.Name] = c
	}
	require.Len(t, out, 9)
	return out
}

func TestScoreFullProfiles(t *testing.T) {
	user1 := models.Profile{
		ID: "u1", Budget: floatPtr(1000), Cleanliness: intPtr(5), SocialLevel: intPtr(2),
		NoiseLevel: intPtr(2), ScheduleType: strPtr("morning"), Vegetarian: true,
	}
	user2 := models.Profile{
		ID: "u2", Budget: floatPtr(1100), Cleanliness: intPtr(4), SocialLevel: intPtr(3),
		NoiseLevel: intPtr(3), ScheduleType: strPtr("morning"), Vegetarian: true,
	}

	r := Score(user1, user2)
	parts := breakdownByName(t, r)

	assert.Equal(t, 14.0, parts["budget"].Points)
	assert.Equal(t, 15.0, parts["pets"].Points)
	assert.Equal(t, 10.0, parts["smoking"].Points)
	assert.Equal(t, 12.0, parts["cleanliness"].Points)
	assert.Equal(t, 8.0, parts["social_level"].Points)
	assert.Equal(t, 8.0, parts["noise_level"].Points)
	assert.Equal(t, 5.0, parts["schedule"].Points)
	assert.Equal(t, 10.0, parts["age_range"].Points)
	assert.Equal(t, 5.0, parts["vegetarian"].Points)

	// 87 points out of 95 evaluable
	assert.Equal(t, 91.58, r.Score)
	assert.Equal(t, LevelExcellent, r.Level)
}

func TestScoreBudgetOnlyProfiles(t *testing.T) {
	user1 := models.Profile{ID: "u1", Budget: floatPtr(1000)}
	user2 := models.Profile{ID: "u2", Budget: floatPtr(1000)}

	r := Score(user1, user2)
	parts := breakdownByName(t, r)

	for _, name := range []string{"cleanliness", "social_level", "noise_level", "schedule"} {
		assert.False(t, parts[name].Evaluated, name)
	}
	for _, name := range []string{"budget", "pets", "smoking", "age_range", "vegetarian"} {
		assert.True(t, parts[name].Evaluated, name)
	}
	// 50 / 55
	assert.Equal(t, 90.91, r.Score)
}

func TestScoreEmptyProfiles(t *testing.T) {
	t.Run("both vegetarian", func(t *testing.T) {
		r := Score(models.Profile{ID: "a", Vegetarian: true}, models.Profile{ID: "b", Vegetarian: true})
		assert.Equal(t, 100.0, r.Score)
	})

	t.Run("no vegetarian bonus", func(t *testing.T) {
		r := Score(models.Profile{ID: "a"}, models.Profile{ID: "b"})
		// 35 / 40
		assert.Equal(t, 87.5, r.Score)
	})
}

func TestScoreZeroTreatedAsAbsent(t *testing.T) {
	a := models.Profile{ID: "a", Cleanliness: intPtr(0), Budget: floatPtr(0), ScheduleType: strPtr("")}
	b := models.Profile{ID: "b", Cleanliness: intPtr(5), Budget: floatPtr(900), ScheduleType: strPtr("night")}

	parts := breakdownByName(t, Score(a, b))
	assert.False(t, parts["cleanliness"].Evaluated)
	assert.False(t, parts["budget"].Evaluated)
	assert.False(t, parts["schedule"].Evaluated)
}

func TestScoreCriteria(t *testing.T) {
	tests := []struct {
		name      string
		a, b      models.Profile
		criterion string
		want      float64
	}{
		{
			name:      "budget difference beyond 1500 floors at zero",
			a:         models.Profile{Budget: floatPtr(500)},
			b:         models.Profile{Budget: floatPtr(2500)},
			criterion: "budget",
			want:      0,
		},
		{
			name:      "pet owner with tolerant roommate",
			a:         models.Profile{HasPets: true},
			b:         models.Profile{AllowsPets: true},
			criterion: "pets",
			want:      WeightPets,
		},
		{
			name:      "pet owner with intolerant roommate",
			a:         models.Profile{HasPets: true},
			b:         models.Profile{},
			criterion: "pets",
			want:      0,
		},
		{
			name:      "both have pets, one allows",
			a:         models.Profile{HasPets: true},
			b:         models.Profile{HasPets: true, AllowsPets: true},
			criterion: "pets",
			want:      WeightPets,
		},
		{
			name:      "smoker with non-smoking household",
			a:         models.Profile{Smoker: true},
			b:         models.Profile{},
			criterion: "smoking",
			want:      0,
		},
		{
			name:      "smoker with permissive roommate",
			a:         models.Profile{AllowsSmoking: true},
			b:         models.Profile{Smoker: true},
			criterion: "smoking",
			want:      WeightSmoking,
		},
		{
			name:      "cleanliness four steps apart",
			a:         models.Profile{Cleanliness: intPtr(1)},
			b:         models.Profile{Cleanliness: intPtr(5)},
			criterion: "cleanliness",
			want:      3,
		},
		{
			name:      "flexible schedule matches anything",
			a:         models.Profile{ScheduleType: strPtr("flexible")},
			b:         models.Profile{ScheduleType: strPtr("night")},
			criterion: "schedule",
			want:      WeightSchedule,
		},
		{
			name:      "different fixed schedules",
			a:         models.Profile{ScheduleType: strPtr("morning")},
			b:         models.Profile{ScheduleType: strPtr("night")},
			criterion: "schedule",
			want:      0,
		},
		{
			name:      "age below minimum",
			a:         models.Profile{AgeMin: intPtr(25)},
			b:         models.Profile{Age: intPtr(22)},
			criterion: "age_range",
			want:      0,
		},
		{
			name:      "age above maximum of the other side",
			a:         models.Profile{Age: intPtr(40)},
			b:         models.Profile{AgeMax: intPtr(35)},
			criterion: "age_range",
			want:      0,
		},
		{
			name:      "age within both ranges",
			a:         models.Profile{Age: intPtr(28), AgeMin: intPtr(25), AgeMax: intPtr(35)},
			b:         models.Profile{Age: intPtr(30), AgeMin: intPtr(20), AgeMax: intPtr(30)},
			criterion: "age_range",
			want:      WeightAgeRange,
		},
		{
			name:      "bounds without an age impose nothing",
			a:         models.Profile{AgeMin: intPtr(30), AgeMax: intPtr(31)},
			b:         models.Profile{},
			criterion: "age_range",
			want:      WeightAgeRange,
		},
		{
			name:      "vegetarian bonus needs both",
			a:         models.Profile{Vegetarian: true},
			b:         models.Profile{},
			criterion: "vegetarian",
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := breakdownByName(t, Score(tt.a, tt.b))
			c := parts[tt.criterion]
			assert.True(t, c.Evaluated)
			assert.Equal(t, tt.want, c.Points)
		})
	}
}

func TestScoreSymmetricAndBounded(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a, b := randomProfile(r), randomProfile(r)

		ab, ba := Score(a, b), Score(b, a)
		require.Equal(t, ab.Score, ba.Score, "pair %d", i)
		require.GreaterOrEqual(t, ab.Score, 0.0)
		require.LessOrEqual(t, ab.Score, 100.0)
		require.Equal(t, ab.Score, math.Round(ab.Score*100)/100)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{100, LevelExcellent},
		{80, LevelExcellent},
		{79.99, LevelGood},
		{65, LevelGood},
		{64.99, LevelFair},
		{50, LevelFair},
		{49.99, LevelLow},
		{0, LevelLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %v", tt.score)
	}
}

func randomProfile(r *rand.Rand) models.Profile {
	maybeInt := func(lo, hi int) *int {
		if r.Intn(3) == 0 {
			return nil
		}
		return intPtr(lo + r.Intn(hi-lo+1))
	}
	p := models.Profile{
		Vegetarian:    r.Intn(2) == 0,
		HasPets:       r.Intn(2) == 0,
		AllowsPets:    r.Intn(2) == 0,
		Smoker:        r.Intn(2) == 0,
		AllowsSmoking: r.Intn(2) == 0,
		Cleanliness:   maybeInt(1, 5),
		SocialLevel:   maybeInt(1, 5),
		NoiseLevel:    maybeInt(1, 5),
		Age:           maybeInt(18, 60),
		AgeMin:        maybeInt(18, 30),
		AgeMax:        maybeInt(30, 60),
	}
	if r.Intn(3) > 0 {
		p.Budget = floatPtr(float64(300 + r.Intn(2000)))
	}
	if r.Intn(3) > 0 {
		p.ScheduleType = strPtr([]string{"morning", "night", "flexible", "shift"}[r.Intn(4)])
	}
	return p
}
