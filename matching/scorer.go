package matching

import (
	"math"

	"gitea.kood.tech/petrkubec/roomies/models"
)

// Criterion weights. Together they form the denominator when every axis can
// be evaluated for a pair.
const (
	WeightBudget      = 15.0
	WeightPets        = 15.0
	WeightSmoking     = 10.0
	WeightCleanliness = 15.0
	WeightSocial      = 10.0
	WeightNoise       = 10.0
	WeightSchedule    = 5.0
	WeightAgeRange    = 10.0
	WeightVegetarian  = 5.0

	maxPossibleScore = WeightBudget + WeightPets + WeightSmoking + WeightCleanliness +
		WeightSocial + WeightNoise + WeightSchedule + WeightAgeRange + WeightVegetarian
)

const scheduleFlexible = "flexible"

// CriterionScore is the contribution of a single axis to a pair's score.
type CriterionScore struct {
	Name      string  `json:"name"`
	Points    float64 `json:"points"`
	Weight    float64 `json:"weight"`
	Evaluated bool    `json:"evaluated"`
}

// Result is the compatibility of an unordered pair of profiles.
type Result struct {
	Score     float64          `json:"score"`
	Level     Level            `json:"level"`
	Breakdown []CriterionScore `json:"breakdown,omitempty"`
}

// Score computes the compatibility of two profiles on a 0-100 scale.
// Criteria that cannot be evaluated for the pair are removed from the
// denominator instead of counting as zero.
func Score(a, b models.Profile) Result {
	breakdown := evaluate(a, b)

	score, maxScore := 0.0, 0.0
	for _, c := range breakdown {
		if !c.Evaluated {
			continue
		}
		score += c.Points
		maxScore += c.Weight
	}

	final := 0.0
	if maxScore > 0 {
		final = round2(score / maxScore * 100)
	}
	return Result{Score: final, Level: LevelFor(final), Breakdown: breakdown}
}

// ScoreValue is Score without the breakdown, used on hot paths like ranking.
func ScoreValue(a, b models.Profile) float64 {
	return Score(a, b).Score
}

func evaluate(a, b models.Profile) []CriterionScore {
	out := make([]CriterionScore, 0, 9)

	// Budget
	budget := CriterionScore{Name: "budget", Weight: WeightBudget}
	if present(a.Budget) && present(b.Budget) {
		diff := math.Abs(*a.Budget - *b.Budget)
		budget.Points = math.Max(0, WeightBudget-diff/100)
		budget.Evaluated = true
	}
	out = append(out, budget)

	// Pets and smoking are always evaluable; flags default to false.
	out = append(out, flagCriterion("pets", WeightPets, allowed(a.HasPets, a.AllowsPets, b.HasPets, b.AllowsPets)))
	out = append(out, flagCriterion("smoking", WeightSmoking, allowed(a.Smoker, a.AllowsSmoking, b.Smoker, b.AllowsSmoking)))

	// Lifestyle scales
	out = append(out, scaleCriterion("cleanliness", WeightCleanliness, 3, a.Cleanliness, b.Cleanliness))
	out = append(out, scaleCriterion("social_level", WeightSocial, 2, a.SocialLevel, b.SocialLevel))
	out = append(out, scaleCriterion("noise_level", WeightNoise, 2, a.NoiseLevel, b.NoiseLevel))

	// Schedule
	schedule := CriterionScore{Name: "schedule", Weight: WeightSchedule}
	if present(a.ScheduleType) && present(b.ScheduleType) {
		schedule.Evaluated = true
		sa, sb := *a.ScheduleType, *b.ScheduleType
		if sa == sb || sa == scheduleFlexible || sb == scheduleFlexible {
			schedule.Points = WeightSchedule
		}
	}
	out = append(out, schedule)

	// Age range: a side without bounds imposes no restriction.
	out = append(out, flagCriterion("age_range", WeightAgeRange, acceptsAge(a, b) && acceptsAge(b, a)))

	// Vegetarian bonus
	out = append(out, flagCriterion("vegetarian", WeightVegetarian, a.Vegetarian && b.Vegetarian))

	return out
}

// allowed is the mutual-allowance rule shared by pets and smoking.
func allowed(aHas, aAllows, bHas, bAllows bool) bool {
	return (!aHas && !bHas) || (aHas && bAllows) || (bHas && aAllows)
}

// acceptsAge reports whether owner's age bounds admit other's age.
func acceptsAge(owner, other models.Profile) bool {
	if !present(other.Age) {
		return true
	}
	age := *other.Age
	if present(owner.AgeMin) && age < *owner.AgeMin {
		return false
	}
	if present(owner.AgeMax) && age > *owner.AgeMax {
		return false
	}
	return true
}

func flagCriterion(name string, weight float64, ok bool) CriterionScore {
	c := CriterionScore{Name: name, Weight: weight, Evaluated: true}
	if ok {
		c.Points = weight
	}
	return c
}

func scaleCriterion(name string, weight, penalty float64, a, b *int) CriterionScore {
	c := CriterionScore{Name: name, Weight: weight}
	if present(a) && present(b) {
		diff := math.Abs(float64(*a - *b))
		c.Points = math.Max(0, weight-penalty*diff)
		c.Evaluated = true
	}
	return c
}

// present treats nil and the zero value alike, so a stored 0 counts as "not provided".
func present[T int | float64 | string](v *T) bool {
	var zero T
	return v != nil && *v != zero
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
