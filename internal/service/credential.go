package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/msomdec/captionly/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	sessionAudience   = "authenticated"
)

// CredentialOptions configures a CredentialService.
type CredentialOptions struct {
	JWTSecret                string
	BcryptCost               int
	SessionTTL               time.Duration
	TokenTTL                 time.Duration
	RequireEmailConfirmation bool
}

// CredentialService is the local credential store: it hashes passwords,
// issues revocable JWT sessions and emails single-use verification and
// recovery links.
type CredentialService struct {
	identities domain.IdentityRepository
	sessions   domain.SessionRepository
	tokens     domain.TokenRepository
	mailer     domain.Mailer
	opts       CredentialOptions
	jwtSecret  []byte
	now        func() time.Time
}

var _ domain.CredentialStore = (*CredentialService)(nil)

// NewCredentialService creates a new CredentialService.
func NewCredentialService(identities domain.IdentityRepository, sessions domain.SessionRepository, tokens domain.TokenRepository, mailer domain.Mailer, opts CredentialOptions) *CredentialService {
	return &CredentialService{
		identities: identities,
		sessions:   sessions,
		tokens:     tokens,
		mailer:     mailer,
		opts:       opts,
		jwtSecret:  []byte(opts.JWTSecret),
		now:        time.Now,
	}
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// SignUp creates an identity and emails a verification link pointing at
// redirectTo. When confirmation is not required the identity is confirmed
// immediately and no email is sent.
func (s *CredentialService) SignUp(ctx context.Context, email, password, redirectTo string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if !validEmail(email) {
		return nil, &domain.AuthError{
			Code:    domain.AuthCodeValidationFailed,
			Message: "Unable to validate email address: invalid format",
			Err:     domain.ErrInvalidInput,
		}
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	identity := &domain.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
	}
	if !s.opts.RequireEmailConfirmation {
		now := s.now().UTC()
		identity.EmailConfirmedAt = &now
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, &domain.AuthError{
				Code:    domain.AuthCodeUserAlreadyExists,
				Message: "User already registered",
				Err:     err,
			}
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	if s.opts.RequireEmailConfirmation {
		if err := s.sendLink(ctx, identity, domain.TokenTypeSignup, redirectTo); err != nil {
			slog.Error("send confirmation email", "identity_id", identity.ID, "error", err)
			// Nothing may outlive a failed sign-up, so the address stays free
			// for a retry.
			if derr := s.identities.Delete(ctx, identity.ID); derr != nil {
				slog.Error("remove identity after failed confirmation email", "identity_id", identity.ID, "error", derr)
				return nil, fmt.Errorf("remove identity after failed confirmation email: %w", errors.Join(err, derr))
			}
			return nil, &domain.AuthError{
				Code:    "unexpected_failure",
				Message: "Error sending confirmation email",
				Err:     err,
			}
		}
	}

	return identity, nil
}

// SignInWithPassword verifies credentials and opens a new session.
func (s *CredentialService) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	invalid := &domain.AuthError{
		Code:    domain.AuthCodeInvalidCredentials,
		Message: "Invalid login credentials",
		Err:     domain.ErrUnauthorized,
	}

	identity, err := s.identities.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return nil, invalid
	}

	if s.opts.RequireEmailConfirmation && !identity.Confirmed() {
		return nil, &domain.AuthError{
			Code:    domain.AuthCodeEmailNotConfirmed,
			Message: "Email not confirmed",
			Err:     domain.ErrUnauthorized,
		}
	}

	return s.issueSession(ctx, identity)
}

// ResetPasswordForEmail emails a recovery link. Unknown addresses succeed
// without sending anything so the response does not reveal which emails
// are registered.
func (s *CredentialService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	identity, err := s.identities.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get identity: %w", err)
	}

	if err := s.sendLink(ctx, identity, domain.TokenTypeRecovery, redirectTo); err != nil {
		return fmt.Errorf("send recovery email: %w", err)
	}
	return nil
}

// VerifyOTP redeems an emailed link token and opens a session for its
// identity. Redeeming either token type confirms the email address.
func (s *CredentialService) VerifyOTP(ctx context.Context, token string, tokenType domain.TokenType) (*domain.Session, error) {
	t, err := s.tokens.Consume(ctx, hashToken(token), tokenType, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return nil, &domain.AuthError{
				Code:    domain.AuthCodeOTPExpired,
				Message: "Email link is invalid or has expired",
				Err:     err,
			}
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}

	if err := s.identities.ConfirmEmail(ctx, t.IdentityID, s.now()); err != nil {
		return nil, fmt.Errorf("confirm email: %w", err)
	}

	identity, err := s.identities.GetByID(ctx, t.IdentityID)
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return s.issueSession(ctx, identity)
}

// UpdatePassword replaces the password of an identity.
func (s *CredentialService) UpdatePassword(ctx context.Context, identityID, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}

	identity, err := s.identities.GetByID(ctx, identityID)
	if err != nil {
		return fmt.Errorf("get identity: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)) == nil {
		return &domain.AuthError{
			Code:    "same_password",
			Message: "New password should be different from the old password.",
			Err:     domain.ErrInvalidInput,
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.identities.UpdatePasswordHash(ctx, identityID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// SignOut revokes the session behind accessToken. Tokens that no longer
// parse are already unusable, so they are ignored.
func (s *CredentialService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.parseSessionToken(accessToken)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// GetIdentity resolves the identity behind a live access token.
func (s *CredentialService) GetIdentity(ctx context.Context, accessToken string) (*domain.Identity, error) {
	claims, err := s.parseSessionToken(accessToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.AuthError{
				Code:    domain.AuthCodeSessionNotFound,
				Message: "Session not found",
				Err:     domain.ErrUnauthorized,
			}
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IdentityID != claims.Subject || !s.now().Before(session.ExpiresAt) {
		return nil, domain.ErrUnauthorized
	}

	identity, err := s.identities.GetByID(ctx, session.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return identity, nil
}

func (s *CredentialService) issueSession(ctx context.Context, identity *domain.Identity) (*domain.Session, error) {
	now := s.now()
	session := &domain.Session{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		ExpiresAt:  now.Add(s.opts.SessionTTL),
		Identity:   identity,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	claims := sessionClaims{
		SessionID: session.ID,
		Email:     identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	session.AccessToken = token

	if err := s.identities.TouchLastSignIn(ctx, identity.ID, now); err != nil {
		return nil, fmt.Errorf("record sign in: %w", err)
	}
	return session, nil
}

func (s *CredentialService) parseSessionToken(tokenString string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(sessionAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, errors.New("session token missing sid or sub")
	}
	return claims, nil
}

func (s *CredentialService) sendLink(ctx context.Context, identity *domain.Identity, tokenType domain.TokenType, redirectTo string) error {
	raw, err := randomHex(32)
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}

	if err := s.tokens.Create(ctx, &domain.OneTimeToken{
		IdentityID: identity.ID,
		Type:       tokenType,
		TokenHash:  hashToken(raw),
		ExpiresAt:  s.now().Add(s.opts.TokenTTL),
	}); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	link, err := url.Parse(redirectTo)
	if err != nil {
		return fmt.Errorf("parse redirect url: %w", err)
	}
	q := link.Query()
	q.Set("token", raw)
	q.Set("type", string(tokenType))
	link.RawQuery = q.Encode()

	subject, body := "Confirm your signup", "Follow this link to confirm your email address:\n\n"
	if tokenType == domain.TokenTypeRecovery {
		subject, body = "Reset your password", "Follow this link to reset the password for your account:\n\n"
	}
	return s.mailer.Send(ctx, identity.Email, subject, body+link.String()+"\n")
}

func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return &domain.AuthError{
			Code:    domain.AuthCodeWeakPassword,
			Message: fmt.Sprintf("Password should be at least %d characters.", minPasswordLength),
			Err:     domain.ErrInvalidInput,
		}
	}
	return nil
}

// validEmail accepts a bare address such as "a@x.com" with no display name.
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
