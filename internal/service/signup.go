package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/msomdec/captionly/internal/domain"
)

// User-facing outcomes of a sign-up submission.
const (
	MsgMissingField       = "All fields are required"
	MsgTooManyInterests   = "Please select up to 5 interests"
	MsgAgeOutOfRange      = "Age must be between 13 and 120"
	MsgInvalidOccupation  = "Invalid occupation selected"
	MsgProfileWriteFailed = "Account created but profile update failed. Please update your profile later."
	MsgSignUpSuccess      = "Thanks for signing up! Please check your email for a verification link."
	MsgSignUpFailed       = "Unable to create account. Please try again."
)

// IdentityCreator is the part of the credential store the sign-up flow uses.
type IdentityCreator interface {
	SignUp(ctx context.Context, email, password, redirectTo string) (*domain.Identity, error)
}

// SignUpService validates a registration, creates the identity and then
// writes the profile row for it.
type SignUpService struct {
	identities IdentityCreator
	profiles   domain.ProfileRepository
}

// NewSignUpService creates a new SignUpService.
func NewSignUpService(identities IdentityCreator, profiles domain.ProfileRepository) *SignUpService {
	return &SignUpService{identities: identities, profiles: profiles}
}

// SignUp runs the registration flow. redirectTo is the verification
// callback URL embedded in the confirmation email.
//
// The returned error is one of *domain.ValidationError (nothing was
// called), *domain.IdentityError (no profile was written) or
// *domain.ProfileWriteError (the identity exists without a profile). A
// profile write failure does not remove the identity; the user completes
// the profile later from the profile page.
func (s *SignUpService) SignUp(ctx context.Context, req domain.RegistrationRequest, redirectTo string) (*domain.Identity, error) {
	present := strings.TrimSpace(req.Email) != "" && req.Password != ""
	if err := validateProfile(req.ProfileInput(), present); err != nil {
		return nil, err
	}

	identity, err := s.identities.SignUp(ctx, strings.TrimSpace(req.Email), req.Password, redirectTo)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			slog.Warn("credential store rejected sign up", "code", authErr.Code, "message", authErr.Message)
			return nil, &domain.IdentityError{Message: authErr.Message, Err: err}
		}
		slog.Error("create identity", "error", err)
		return nil, &domain.IdentityError{Message: MsgSignUpFailed, Err: err}
	}
	if identity == nil {
		slog.Warn("credential store returned no identity; skipping profile write")
		return nil, nil
	}

	profile := normalizeProfile(identity.ID, req.ProfileInput())
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		slog.Error("write profile after sign up", "identity_id", identity.ID, "error", err)
		return identity, &domain.ProfileWriteError{IdentityID: identity.ID, Err: err}
	}

	return identity, nil
}

// validateProfile applies the registration rules in order: presence,
// interest count, age range, occupation. credentialsPresent folds the
// email/password presence check into the first rule.
func validateProfile(in domain.ProfileInput, credentialsPresent bool) error {
	if !credentialsPresent ||
		strings.TrimSpace(in.FullName) == "" ||
		in.Age == 0 ||
		strings.TrimSpace(in.Gender) == "" ||
		strings.TrimSpace(in.Occupation) == "" ||
		strings.TrimSpace(in.Country) == "" ||
		len(in.Interests) == 0 ||
		strings.TrimSpace(in.UsagePurpose) == "" {
		return &domain.ValidationError{Reason: domain.ReasonMissingField, Message: MsgMissingField}
	}

	if len(in.Interests) > domain.MaxInterests {
		return &domain.ValidationError{Reason: domain.ReasonTooManyInterests, Message: MsgTooManyInterests}
	}

	if in.Age < domain.MinAge || in.Age > domain.MaxAge {
		return &domain.ValidationError{Reason: domain.ReasonAgeOutOfRange, Message: MsgAgeOutOfRange}
	}

	if !slices.Contains(domain.Occupations, strings.ToLower(strings.TrimSpace(in.Occupation))) {
		return &domain.ValidationError{Reason: domain.ReasonInvalidOccupation, Message: MsgInvalidOccupation}
	}

	return nil
}

func normalizeProfile(id string, in domain.ProfileInput) *domain.Profile {
	interests := in.Interests
	if len(interests) > domain.MaxInterests {
		interests = interests[:domain.MaxInterests]
	}
	return &domain.Profile{
		ID:           id,
		FullName:     strings.TrimSpace(in.FullName),
		Age:          in.Age,
		Gender:       strings.ToLower(strings.TrimSpace(in.Gender)),
		Occupation:   strings.ToLower(strings.TrimSpace(in.Occupation)),
		Country:      strings.ToLower(strings.TrimSpace(in.Country)),
		Interests:    slices.Clone(interests),
		UsagePurpose: strings.TrimSpace(in.UsagePurpose),
	}
}
