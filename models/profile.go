package models

import "time"

// Profile represents a user's declared roommate preferences used for matching.
// Optional values are nil when the user never provided them.
type Profile struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Age              *int      `json:"age,omitempty"`
	Gender           *string   `json:"gender,omitempty"`
	Budget           *float64  `json:"budget,omitempty"`
	Vegetarian       bool      `json:"vegetarian"`
	HasPets          bool      `json:"has_pets"`
	AllowsPets       bool      `json:"allows_pets"`
	Smoker           bool      `json:"smoker"`
	AllowsSmoking    bool      `json:"allows_smoking"`
	Cleanliness      *int      `json:"cleanliness,omitempty"`
	SocialLevel      *int      `json:"social_level,omitempty"`
	NoiseLevel       *int      `json:"noise_level,omitempty"`
	ScheduleType     *string   `json:"schedule_type,omitempty"`
	GenderPreference *string   `json:"gender_preference,omitempty"`
	AgeMin           *int      `json:"age_min,omitempty"`
	AgeMax           *int      `json:"age_max,omitempty"`
	Complete         bool      `json:"is_complete"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProfileFilter narrows the candidate pool before scoring.
type ProfileFilter struct {
	ExcludeID    string
	CompleteOnly bool
	// Gender, when set, keeps only candidates whose gender equals it.
	Gender string
}

// Matches reports whether p passes the filter. Storage backends that cannot
// push the filter into a query use it directly.
func (f ProfileFilter) Matches(p Profile) bool {
	if f.ExcludeID != "" && p.ID == f.ExcludeID {
		return false
	}
	if f.CompleteOnly && !p.Complete {
		return false
	}
	if f.Gender != "" && (p.Gender == nil || *p.Gender != f.Gender) {
		return false
	}
	return true
}
