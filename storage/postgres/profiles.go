package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"gitea.kood.tech/petrkubec/roomies/models"
)

// ProfileRepository reads users joined with their (optional) preference rows.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `
	u.id, u.name, u.age, u.gender, u.created_at,
	p.user_id IS NOT NULL AS is_complete,
	p.budget, COALESCE(p.vegetarian, FALSE), COALESCE(p.has_pets, FALSE), COALESCE(p.allows_pets, FALSE),
	COALESCE(p.smoker, FALSE), COALESCE(p.allows_smoking, FALSE),
	p.cleanliness, p.social_level, p.noise_level, p.schedule_type, p.gender_preference,
	p.age_min, p.age_max`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var (
		p                                      models.Profile
		age, ageMin, ageMax                    sql.NullInt32
		cleanliness, socialLevel, noiseLevel   sql.NullInt32
		gender, scheduleType, genderPreference sql.NullString
		budget                                 sql.NullFloat64
	)
	err := row.Scan(
		&p.ID, &p.Name, &age, &gender, &p.CreatedAt,
		&p.Complete,
		&budget, &p.Vegetarian, &p.HasPets, &p.AllowsPets,
		&p.Smoker, &p.AllowsSmoking,
		&cleanliness, &socialLevel, &noiseLevel, &scheduleType, &genderPreference,
		&ageMin, &ageMax,
	)
	if err != nil {
		return nil, err
	}

	p.Age = nullInt(age)
	p.AgeMin = nullInt(ageMin)
	p.AgeMax = nullInt(ageMax)
	p.Cleanliness = nullInt(cleanliness)
	p.SocialLevel = nullInt(socialLevel)
	p.NoiseLevel = nullInt(noiseLevel)
	p.Gender = nullString(gender)
	p.ScheduleType = nullString(scheduleType)
	p.GenderPreference = nullString(genderPreference)
	if budget.Valid {
		p.Budget = &budget.Float64
	}
	return &p, nil
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+`
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1
	`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %s: %w", id, err)
	}
	return p, nil
}

// GetProfiles loads a batch of profiles keyed by id. Unknown ids are absent.
func (r *ProfileRepository) GetProfiles(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	out := make(map[string]*models.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

// ListProfiles returns the candidate pool, oldest accounts first.
func (r *ProfileRepository) ListProfiles(ctx context.Context, filter models.ProfileFilter) ([]models.Profile, error) {
	var (
		where []string
		args  []any
	)
	if filter.ExcludeID != "" {
		args = append(args, filter.ExcludeID)
		where = append(where, fmt.Sprintf("u.id <> $%d", len(args)))
	}
	if filter.CompleteOnly {
		where = append(where, "p.user_id IS NOT NULL")
	}
	if filter.Gender != "" {
		args = append(args, filter.Gender)
		where = append(where, fmt.Sprintf("u.gender = $%d", len(args)))
	}

	query := `SELECT ` + profileColumns + `
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY u.created_at, u.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	var out []models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func nullInt(v sql.NullInt32) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}
