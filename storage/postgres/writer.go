package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"gitea.kood.tech/petrkubec/roomies/models"
)

// SaveProfile writes the user row and, for complete profiles, the preference
// row in one transaction. An empty ID gets a generated one. The stored id is
// returned.
func (r *ProfileRepository) SaveProfile(ctx context.Context, p models.Profile, email string) (string, error) {
	id := p.ID
	err := WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var emailArg any
		if email != "" {
			emailArg = email
		}

		if id == "" {
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO users (email, name, age, gender)
				VALUES ($1, $2, $3, $4)
				RETURNING id
			`, emailArg, p.Name, p.Age, p.Gender).Scan(&id); err != nil {
				return fmt.Errorf("inserting user: %w", err)
			}
		} else {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO users (id, email, name, age, gender)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE
				SET email = EXCLUDED.email, name = EXCLUDED.name, age = EXCLUDED.age, gender = EXCLUDED.gender
			`, id, emailArg, p.Name, p.Age, p.Gender); err != nil {
				return fmt.Errorf("upserting user: %w", err)
			}
		}

		if !p.Complete {
			_, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE user_id = $1`, id)
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO profiles (
				user_id, budget, vegetarian, has_pets, allows_pets, smoker, allows_smoking,
				cleanliness, social_level, noise_level, schedule_type, gender_preference,
				age_min, age_max
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (user_id) DO UPDATE SET
				budget = EXCLUDED.budget,
				vegetarian = EXCLUDED.vegetarian,
				has_pets = EXCLUDED.has_pets,
				allows_pets = EXCLUDED.allows_pets,
				smoker = EXCLUDED.smoker,
				allows_smoking = EXCLUDED.allows_smoking,
				cleanliness = EXCLUDED.cleanliness,
				social_level = EXCLUDED.social_level,
				noise_level = EXCLUDED.noise_level,
				schedule_type = EXCLUDED.schedule_type,
				gender_preference = EXCLUDED.gender_preference,
				age_min = EXCLUDED.age_min,
				age_max = EXCLUDED.age_max,
				updated_at = now()
		`, id, p.Budget, p.Vegetarian, p.HasPets, p.AllowsPets, p.Smoker, p.AllowsSmoking,
			p.Cleanliness, p.SocialLevel, p.NoiseLevel, p.ScheduleType, p.GenderPreference,
			p.AgeMin, p.AgeMax)
		if err != nil {
			return fmt.Errorf("upserting profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Truncate removes all users, profiles and actions. Used by the seeder.
func Truncate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `TRUNCATE interest_actions, profiles, users`)
	return err
}
