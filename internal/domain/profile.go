package domain

import (
	"context"
	"time"
)

const (
	MinAge       = 13
	MaxAge       = 120
	MaxInterests = 5
)

// Occupations is the fixed set of accepted (lowercased) occupation values.
var Occupations = []string{"educator", "student", "hobbyist", "professional", "other"}

// Genders are the options offered by the registration form. The value is
// normalized but not checked against this list.
var Genders = []string{"male", "female", "non-binary", "prefer-not-to-say"}

// SuggestedCountries are offered by the registration form. Any country is
// accepted.
var SuggestedCountries = []string{
	"United States", "United Kingdom", "Canada", "Australia", "Germany",
	"France", "Spain", "Italy", "Netherlands", "India", "Japan", "Brazil", "Other",
}

// SuggestedInterests are the interest checkboxes on the registration form.
var SuggestedInterests = []string{
	"Art & Design", "Photography", "Travel", "Food", "Nature",
	"Technology", "Sports", "Fashion", "Music", "Education",
}

// AccountTier values.
const (
	AccountTierFree    = "free"
	AccountTierPremium = "premium"
)

// Profile is the application-owned row of non-credential attributes, keyed
// by identity id.
type Profile struct {
	ID           string
	FullName     string
	Age          int
	Gender       string
	Occupation   string
	Country      string
	Interests    []string
	UsagePurpose string
	AccountTier  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileRepository defines persistence operations for the profile table.
type ProfileRepository interface {
	// Upsert updates the row keyed by profile.ID, creating it if absent.
	Upsert(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
}

// RegistrationRequest is one sign-up submission assembled from form fields.
type RegistrationRequest struct {
	Email        string
	Password     string
	FullName     string
	Age          int
	Gender       string
	Occupation   string
	Country      string
	Interests    []string
	UsagePurpose string
}

// ProfileInput holds the editable profile attributes.
type ProfileInput struct {
	FullName     string
	Age          int
	Gender       string
	Occupation   string
	Country      string
	Interests    []string
	UsagePurpose string
}

// ProfileInput returns the non-credential part of the request.
func (r RegistrationRequest) ProfileInput() ProfileInput {
	return ProfileInput{
		FullName:     r.FullName,
		Age:          r.Age,
		Gender:       r.Gender,
		Occupation:   r.Occupation,
		Country:      r.Country,
		Interests:    r.Interests,
		UsagePurpose: r.UsagePurpose,
	}
}
