package domain

import (
	"context"
	"time"
)

// Identity is the credential-bearing account record owned by the
// credential store. The password hash never leaves the store.
type Identity struct {
	ID               string
	Email            string
	PasswordHash     string
	EmailConfirmedAt *time.Time
	LastSignInAt     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Confirmed reports whether the identity has verified its email address.
func (i *Identity) Confirmed() bool {
	return i.EmailConfirmedAt != nil
}

// Session is an issued sign-in session. AccessToken is what the browser
// carries; the session row backs revocation.
type Session struct {
	ID          string
	IdentityID  string
	AccessToken string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	Identity    *Identity
}

// TokenType distinguishes email verification links from password recovery
// links.
type TokenType string

const (
	TokenTypeSignup   TokenType = "signup"
	TokenTypeRecovery TokenType = "recovery"
)

// OneTimeToken is a single-use emailed token. Only its hash is persisted.
type OneTimeToken struct {
	ID         int64
	IdentityID string
	Type       TokenType
	TokenHash  string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}

// CredentialStore is the identity provider the application delegates
// authentication to. Implementations return *AuthError for every failure
// the user can act on.
type CredentialStore interface {
	SignUp(ctx context.Context, email, password, redirectTo string) (*Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	VerifyOTP(ctx context.Context, token string, tokenType TokenType) (*Session, error)
	UpdatePassword(ctx context.Context, identityID, password string) error
	SignOut(ctx context.Context, accessToken string) error
	GetIdentity(ctx context.Context, accessToken string) (*Identity, error)
}

// IdentityRepository defines persistence operations for identities.
type IdentityRepository interface {
	Create(ctx context.Context, identity *Identity) error
	GetByID(ctx context.Context, id string) (*Identity, error)
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	ConfirmEmail(ctx context.Context, id string, at time.Time) error
	TouchLastSignIn(ctx context.Context, id string, at time.Time) error
	// Delete removes the identity together with its sessions and tokens.
	Delete(ctx context.Context, id string) error
}

// SessionRepository persists issued sessions so they can be revoked.
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	GetByID(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenRepository persists one-time email tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *OneTimeToken) error
	// Consume marks the unused, unexpired token with the given hash and type
	// as used and returns it. Returns ErrNotFound if no such token exists and
	// ErrTokenExpired if it exists but has expired.
	Consume(ctx context.Context, tokenHash string, tokenType TokenType, now time.Time) (*OneTimeToken, error)
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
