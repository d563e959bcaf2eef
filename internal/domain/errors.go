package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateObject = errors.New("object already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTokenExpired    = errors.New("token expired")
)

// AuthError is returned by a CredentialStore. Code is a stable machine
// identifier, Message is safe to show to the user verbatim.
type AuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *AuthError) Unwrap() error { return e.Err }

// Auth error codes.
const (
	AuthCodeUserAlreadyExists  = "user_already_exists"
	AuthCodeInvalidCredentials = "invalid_credentials"
	AuthCodeEmailNotConfirmed  = "email_not_confirmed"
	AuthCodeValidationFailed   = "validation_failed"
	AuthCodeWeakPassword       = "weak_password"
	AuthCodeOTPExpired         = "otp_expired"
	AuthCodeSessionNotFound    = "session_not_found"
)

// ValidationReason names which registration rule rejected a request.
type ValidationReason string

const (
	ReasonMissingField      ValidationReason = "missing field"
	ReasonTooManyInterests  ValidationReason = "too many interests"
	ReasonAgeOutOfRange     ValidationReason = "age out of range"
	ReasonInvalidOccupation ValidationReason = "invalid occupation"
)

// ValidationError is a client-correctable rejection raised before any
// backend call is made.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + string(e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// IdentityError reports that the credential store rejected the request.
// Message is the provider's message, passed through unchanged.
type IdentityError struct {
	Message string
	Err     error
}

func (e *IdentityError) Error() string {
	return "identity: " + e.Message
}

func (e *IdentityError) Unwrap() error { return e.Err }

// ProfileWriteError reports that the identity was created but the profile
// row could not be written. The identity is left in place.
type ProfileWriteError struct {
	IdentityID string
	Err        error
}

func (e *ProfileWriteError) Error() string {
	return fmt.Sprintf("profile write for identity %s: %v", e.IdentityID, e.Err)
}

func (e *ProfileWriteError) Unwrap() error { return e.Err }
