// Package seed generates deterministic demo users and interest actions.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/models"
)

// Test users always come first so they are easy to log in as.
var TestEmails = []string{"user1@test.local", "user2@test.local"}

type Options struct {
	Count int
	Seed  int64
	// LikeRate is the share of other users each user likes; DislikeRate the
	// share they dislike.
	LikeRate       float64
	DislikeRate    float64
	IncompleteRate float64
}

func DefaultOptions() Options {
	return Options{Count: 300, Seed: 42, LikeRate: 0.05, DislikeRate: 0.03, IncompleteRate: 0.1}
}

func (o Options) Validate() error {
	if o.Count < len(TestEmails) {
		return fmt.Errorf("count must be at least %d", len(TestEmails))
	}
	for name, rate := range map[string]float64{
		"like-rate":       o.LikeRate,
		"dislike-rate":    o.DislikeRate,
		"incomplete-rate": o.IncompleteRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be in range 0..1, got %v", name, rate)
		}
	}
	if o.LikeRate+o.DislikeRate > 1 {
		return fmt.Errorf("like-rate plus dislike-rate must not exceed 1")
	}
	return nil
}

type User struct {
	Profile models.Profile
	Email   string
}

type Action struct {
	ActorID  string
	TargetID string
	Action   models.Action
}

type Dataset struct {
	Users   []User
	Actions []Action
}

// Generate builds the dataset. The same options always give the same data.
func Generate(opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := rand.New(rand.NewSource(opts.Seed))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ds := &Dataset{Users: make([]User, 0, opts.Count)}
	emails := make(map[string]struct{}, opts.Count)
	for i := 0; i < opts.Count; i++ {
		id, err := uuid.NewRandomFromReader(r)
		if err != nil {
			return nil, fmt.Errorf("generating id: %w", err)
		}

		var u User
		if i < len(TestEmails) {
			u = User{Profile: testProfile(i), Email: TestEmails[i]}
			emails[u.Email] = struct{}{}
		} else {
			u = User{Profile: randomProfile(r, opts.IncompleteRate), Email: uniqueEmail(r, emails)}
		}
		u.Profile.ID = id.String()
		u.Profile.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		ds.Users = append(ds.Users, u)
	}

	// The two test users like each other.
	a, b := ds.Users[0].Profile.ID, ds.Users[1].Profile.ID
	ds.Actions = append(ds.Actions,
		Action{ActorID: a, TargetID: b, Action: models.ActionLike},
		Action{ActorID: b, TargetID: a, Action: models.ActionLike},
	)

	others := ds.Users[len(TestEmails):]
	for _, actor := range others {
		if !actor.Profile.Complete {
			continue
		}
		for _, target := range others {
			if target.Profile.ID == actor.Profile.ID {
				continue
			}
			switch p := r.Float64(); {
			case p < opts.LikeRate:
				action := models.ActionLike
				if r.Intn(5) == 0 {
					action = models.ActionSuperLike
				}
				ds.Actions = append(ds.Actions, Action{ActorID: actor.Profile.ID, TargetID: target.Profile.ID, Action: action})
			case p < opts.LikeRate+opts.DislikeRate:
				ds.Actions = append(ds.Actions, Action{ActorID: actor.Profile.ID, TargetID: target.Profile.ID, Action: models.ActionDislike})
			}
		}
	}
	return ds, nil
}

// ProfileSaver is implemented by the profile backends.
type ProfileSaver interface {
	SaveProfile(ctx context.Context, p models.Profile, email string) (string, error)
}

// Apply writes the dataset through the given backends.
func Apply(ctx context.Context, ds *Dataset, profiles ProfileSaver, store *interest.Store, log *zap.Logger) error {
	for _, u := range ds.Users {
		if _, err := profiles.SaveProfile(ctx, u.Profile, u.Email); err != nil {
			return fmt.Errorf("saving %s: %w", u.Email, err)
		}
	}
	log.Info("inserted users", zap.Int("count", len(ds.Users)))

	for _, a := range ds.Actions {
		if _, err := store.RecordAction(ctx, a.ActorID, a.TargetID, a.Action); err != nil {
			return fmt.Errorf("recording %s %s -> %s: %w", a.Action, a.ActorID, a.TargetID, err)
		}
	}
	log.Info("inserted interest actions", zap.Int("count", len(ds.Actions)))
	return nil
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func testProfile(i int) models.Profile {
	names := []string{"Test User One", "Test User Two"}
	return models.Profile{
		Name:             names[i],
		Age:              intPtr(25 + i),
		Gender:           strPtr(genders[i]),
		Budget:           floatPtr(800 + float64(i)*50),
		Vegetarian:       true,
		Cleanliness:      intPtr(4),
		SocialLevel:      intPtr(3),
		NoiseLevel:       intPtr(2),
		ScheduleType:     strPtr("morning"),
		GenderPreference: strPtr("any"),
		Complete:         true,
	}
}

var (
	firstNames = []string{"Alex", "Sam", "Mia", "Lauri", "Noah", "Olivia", "Leo", "Emil", "Sara", "Luca", "Milla", "Mikko", "Eeva", "Niklas", "Sofia"}
	lastNames  = []string{"Korhonen", "Virtanen", "Nieminen", "Laine", "Heikkinen", "Koski", "Mäki", "Aho", "Salmi", "Rantanen"}
	genders    = []string{"female", "male", "non_binary"}
	schedules  = []string{"morning", "night", "flexible"}
)

func randomProfile(r *rand.Rand, incompleteRate float64) models.Profile {
	p := models.Profile{
		Name:   firstNames[r.Intn(len(firstNames))] + " " + lastNames[r.Intn(len(lastNames))],
		Age:    intPtr(19 + r.Intn(22)),
		Gender: strPtr(genders[r.Intn(len(genders))]),
	}
	if r.Float64() < incompleteRate {
		return p
	}

	p.Complete = true
	p.Budget = floatPtr(float64(400 + 50*r.Intn(23)))
	p.Vegetarian = r.Float64() < 0.2
	p.HasPets = r.Float64() < 0.25
	p.AllowsPets = p.HasPets || r.Float64() < 0.5
	p.Smoker = r.Float64() < 0.15
	p.AllowsSmoking = p.Smoker || r.Float64() < 0.2
	p.Cleanliness = intPtr(1 + r.Intn(5))
	p.SocialLevel = intPtr(1 + r.Intn(5))
	p.NoiseLevel = intPtr(1 + r.Intn(5))
	p.ScheduleType = strPtr(schedules[r.Intn(len(schedules))])

	switch r.Intn(10) {
	case 0, 1:
		p.GenderPreference = strPtr("female")
	case 2:
		p.GenderPreference = strPtr("male")
	default:
		p.GenderPreference = strPtr("any")
	}

	// Some users set an age window around their own age.
	if r.Intn(3) == 0 {
		p.AgeMin = intPtr(*p.Age - 3 - r.Intn(5))
		p.AgeMax = intPtr(*p.Age + 3 + r.Intn(8))
	}
	return p
}

func uniqueEmail(r *rand.Rand, used map[string]struct{}) string {
	for {
		first := firstNames[r.Intn(len(firstNames))]
		last := []string{"korhonen", "virtanen", "nieminen", "laine", "heikkinen", "koski", "maki", "aho", "salmi", "rantanen"}[r.Intn(10)]
		domain := []string{"example.com", "mail.test", "dev.local"}[r.Intn(3)]
		email := fmt.Sprintf("%s.%s+%d@%s", strings.ToLower(first), last, r.Intn(1000000), domain)
		if _, ok := used[email]; !ok {
			used[email] = struct{}{}
			return email
		}
	}
}
