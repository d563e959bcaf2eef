package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/captionly/internal/domain"
)

// AdminRepository implements domain.AdminRepository using SQLite.
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new SQLite-backed AdminRepository.
func NewAdminRepository(db *DB) *AdminRepository {
	return &AdminRepository{db: db.SqlDB}
}

func (r *AdminRepository) Stats(ctx context.Context) (*domain.AdminStats, error) {
	s := &domain.AdminStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM identities),
			(SELECT COUNT(*) FROM users WHERE account_tier = 'premium'),
			(SELECT COUNT(*) FROM generations),
			(SELECT COALESCE(SUM(tokens_used), 0) FROM generations)`,
	).Scan(&s.TotalUsers, &s.PremiumUsers, &s.TotalGenerations, &s.TotalTokensUsed)
	if err != nil {
		return nil, fmt.Errorf("query admin stats: %w", err)
	}
	// Identities without a profile row are on the free tier.
	s.FreeUsers = s.TotalUsers - s.PremiumUsers
	return s, nil
}

// ListUsers returns one page of identities whose email contains q.Search
// (case-insensitive), newest first, along with the total match count.
func (r *AdminRepository) ListUsers(ctx context.Context, q domain.PageQuery) ([]domain.AdminUser, int, error) {
	pattern := likePattern(q.Search)

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM identities WHERE email LIKE ? ESCAPE '\'`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT i.id, i.email, i.created_at, i.last_sign_in_at,
		       u.id, u.full_name, u.age, u.gender, u.occupation, u.country, u.interests, u.usage_purpose,
		       COALESCE(u.account_tier, 'free'),
		       COALESCE(g.cnt, 0), COALESCE(g.tokens, 0)
		FROM identities i
		LEFT JOIN users u ON u.id = i.id
		LEFT JOIN (
			SELECT user_id, COUNT(*) AS cnt, SUM(tokens_used) AS tokens
			FROM generations GROUP BY user_id
		) g ON g.user_id = i.id
		WHERE i.email LIKE ? ESCAPE '\'
		ORDER BY i.created_at DESC, i.id
		LIMIT ? OFFSET ?`,
		pattern, q.PerPage, q.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []domain.AdminUser
	for rows.Next() {
		var (
			u          domain.AdminUser
			lastSignIn sql.NullTime
			profileID  sql.NullString
			fullName   sql.NullString
			age        sql.NullInt64
			gender     sql.NullString
			occupation sql.NullString
			country    sql.NullString
			interests  sql.NullString
			purpose    sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Email, &u.CreatedAt, &lastSignIn,
			&profileID, &fullName, &age, &gender, &occupation, &country, &interests, &purpose,
			&u.AccountTier, &u.TotalGenerations, &u.TokensUsed); err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		u.LastSignInAt = timePtr(lastSignIn)
		if profileID.Valid {
			u.Metadata = domain.UserMetadata{
				FullName:     stringPtr(fullName),
				Gender:       stringPtr(gender),
				Occupation:   stringPtr(occupation),
				Country:      stringPtr(country),
				UsagePurpose: stringPtr(purpose),
			}
			if age.Valid && age.Int64 > 0 {
				v := int(age.Int64)
				u.Metadata.Age = &v
			}
			if interests.Valid {
				if err := json.Unmarshal([]byte(interests.String), &u.Metadata.Interests); err != nil {
					return nil, 0, fmt.Errorf("decode interests for %s: %w", u.ID, err)
				}
			}
		}
		u.TokensRemaining = max(domain.TokenQuota(u.AccountTier)-u.TokensUsed, 0)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// ListGenerations returns one page of generations whose caption contains
// q.Search (case-insensitive), newest first, along with the total count.
func (r *AdminRepository) ListGenerations(ctx context.Context, q domain.PageQuery) ([]domain.Generation, int, error) {
	pattern := likePattern(q.Search)

	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM generations g
		JOIN identities i ON i.id = g.user_id
		WHERE g.caption LIKE ? ESCAPE '\'`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count generations: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.user_id, g.image_url, g.caption, g.confidence_score,
		       g.processing_time_ms, g.tokens_used, g.created_at, i.email
		FROM generations g
		JOIN identities i ON i.id = g.user_id
		WHERE g.caption LIKE ? ESCAPE '\'
		ORDER BY g.created_at DESC, g.id
		LIMIT ? OFFSET ?`,
		pattern, q.PerPage, q.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var gens []domain.Generation
	for rows.Next() {
		var g domain.Generation
		var ms int64
		if err := rows.Scan(&g.ID, &g.UserID, &g.ImageURL, &g.Caption, &g.ConfidenceScore,
			&ms, &g.TokensUsed, &g.CreatedAt, &g.UserEmail); err != nil {
			return nil, 0, fmt.Errorf("scan generation: %w", err)
		}
		g.ProcessingTime = time.Duration(ms) * time.Millisecond
		gens = append(gens, g)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate generations: %w", err)
	}
	return gens, total, nil
}

// likePattern builds a substring LIKE pattern, escaping LIKE wildcards in
// the search term.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid || s.String == "" {
		return nil
	}
	v := s.String
	return &v
}
