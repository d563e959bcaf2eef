package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/captionly/internal/domain"
)

// IdentityRepository implements domain.IdentityRepository using SQLite.
type IdentityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new SQLite-backed IdentityRepository.
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db.SqlDB}
}

const identityColumns = `id, email, password_hash, email_confirmed_at, last_sign_in_at, created_at, updated_at`

func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, email, password_hash, email_confirmed_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		identity.ID, identity.Email, identity.PasswordHash, nullTime(identity.EmailConfirmedAt), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert identity: %w", err)
	}

	identity.CreatedAt = now
	identity.UpdatedAt = now
	return nil
}

func (r *IdentityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE id = ?`, id)
	identity, err := scanIdentity(row)
	if err != nil {
		return nil, fmt.Errorf("query identity by id: %w", err)
	}
	return identity, nil
}

func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = ?`, email)
	identity, err := scanIdentity(row)
	if err != nil {
		return nil, fmt.Errorf("query identity by email: %w", err)
	}
	return identity, nil
}

func (r *IdentityRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.exec(ctx, "update password hash",
		`UPDATE identities SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC(), id)
}

func (r *IdentityRepository) ConfirmEmail(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "confirm email",
		`UPDATE identities SET email_confirmed_at = COALESCE(email_confirmed_at, ?), updated_at = ? WHERE id = ?`,
		at.UTC(), time.Now().UTC(), id)
}

func (r *IdentityRepository) TouchLastSignIn(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, "touch last sign in",
		`UPDATE identities SET last_sign_in_at = ? WHERE id = ?`,
		at.UTC(), id)
}

func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "delete identity", `DELETE FROM identities WHERE id = ?`, id)
}

func (r *IdentityRepository) exec(ctx context.Context, action, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", action, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", action, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*domain.Identity, error) {
	identity := &domain.Identity{}
	var confirmedAt, lastSignIn sql.NullTime
	err := row.Scan(&identity.ID, &identity.Email, &identity.PasswordHash,
		&confirmedAt, &lastSignIn, &identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	identity.EmailConfirmedAt = timePtr(confirmedAt)
	identity.LastSignInAt = timePtr(lastSignIn)
	return identity, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
