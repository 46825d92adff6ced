package matching

// Level is the qualitative bucket of a compatibility score.
type Level struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	LevelExcellent = Level{Name: "Excellent", Description: "Very compatible! You share most preferences."}
	LevelGood      = Level{Name: "Good", Description: "Good compatibility. A few minor differences."}
	LevelFair      = Level{Name: "Fair", Description: "Moderate compatibility. Expect some compromise."}
	LevelLow       = Level{Name: "Low", Description: "Low compatibility. Many important differences."}
)

// LevelFor maps a score to its level. Lower bounds are inclusive.
func LevelFor(score float64) Level {
	switch {
	case score >= 80:
		return LevelExcellent
	case score >= 65:
		return LevelGood
	case score >= 50:
		return LevelFair
	default:
		return LevelLow
	}
}
