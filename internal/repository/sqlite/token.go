package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/captionly/internal/domain"
)

// TokenRepository implements domain.TokenRepository using SQLite.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new SQLite-backed TokenRepository.
func NewTokenRepository(db *DB) *TokenRepository {
	return &TokenRepository{db: db.SqlDB}
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.OneTimeToken) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO one_time_tokens (identity_id, token_type, token_hash, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		token.IdentityID, string(token.Type), token.TokenHash, token.ExpiresAt.UTC(), now,
	)
	if err != nil {
		return fmt.Errorf("insert one-time token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	token.ID = id
	token.CreatedAt = now
	return nil
}

// Consume marks a token used inside a transaction so a token can never be
// redeemed twice.
func (r *TokenRepository) Consume(ctx context.Context, tokenHash string, tokenType domain.TokenType, now time.Time) (*domain.OneTimeToken, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t := &domain.OneTimeToken{}
	var tokenTypeStr string
	var usedAt sql.NullTime
	err = tx.QueryRowContext(ctx,
		`SELECT id, identity_id, token_type, token_hash, expires_at, used_at, created_at
		 FROM one_time_tokens WHERE token_hash = ? AND token_type = ?`,
		tokenHash, string(tokenType),
	).Scan(&t.ID, &t.IdentityID, &tokenTypeStr, &t.TokenHash, &t.ExpiresAt, &usedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query one-time token: %w", err)
	}
	t.Type = domain.TokenType(tokenTypeStr)

	if usedAt.Valid {
		return nil, domain.ErrNotFound
	}
	if !now.Before(t.ExpiresAt) {
		return nil, domain.ErrTokenExpired
	}

	usedTime := now.UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE one_time_tokens SET used_at = ? WHERE id = ?`, usedTime, t.ID); err != nil {
		return nil, fmt.Errorf("mark token used: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	t.UsedAt = &usedTime
	return t, nil
}
