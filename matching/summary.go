package matching

import (
	"fmt"
	"strings"

	"gitea.kood.tech/petrkubec/roomies/models"
)

const (
	defaultSummary = "Looking for a compatible roommate to share costs and experiences."
	// neutralScale is assumed for a scale the user never filled in.
	neutralScale = 3
	maxTraits    = 3
)

// Summarize builds a short display blurb out of a profile's most telling traits.
func Summarize(p models.Profile) string {
	var traits []string

	if p.HasPets {
		traits = append(traits, "has pets")
	}
	if p.Vegetarian {
		traits = append(traits, "vegetarian")
	}
	if p.AllowsSmoking {
		traits = append(traits, "smoking allowed")
	}

	switch clean := scaleOr(p.Cleanliness, neutralScale); {
	case clean >= 4:
		traits = append(traits, "very tidy")
	case clean <= 2:
		traits = append(traits, "relaxed about tidiness")
	}

	switch social := scaleOr(p.SocialLevel, neutralScale); {
	case social >= 4:
		traits = append(traits, "very social")
	case social <= 2:
		traits = append(traits, "prefers quiet")
	}

	if len(traits) == 0 {
		return defaultSummary
	}
	if len(traits) > maxTraits {
		traits = traits[:maxTraits]
	}
	return fmt.Sprintf("Profile: %s. Looking for a roommate with a similar lifestyle.", strings.Join(traits, ", "))
}

func scaleOr(v *int, fallback int) int {
	if !present(v) {
		return fallback
	}
	return *v
}
