package matching

import (
	"sort"

	"gitea.kood.tech/petrkubec/roomies/models"
)

const (
	DefaultMinScore = 50.0
	DefaultLimit    = 10
)

// Match is a ranked candidate.
type Match struct {
	Candidate models.Profile `json:"candidate"`
	Score     float64        `json:"score"`
	Level     Level          `json:"level"`
}

// Rank scores every candidate against self, drops those below minScore and
// returns at most limit matches ordered by score. Candidates with equal scores
// keep their input order. self must not be among the candidates.
func Rank(self models.Profile, candidates []models.Profile, minScore float64, limit int) []Match {
	if limit <= 0 {
		return []Match{}
	}

	matched := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score := ScoreValue(self, c)
		if score < minScore {
			continue
		}
		matched = append(matched, Match{Candidate: c, Score: score, Level: LevelFor(score)})
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Score > matched[j].Score
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
