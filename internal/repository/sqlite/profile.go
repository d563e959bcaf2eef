package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/captionly/internal/domain"
)

// ProfileRepository implements domain.ProfileRepository on the users table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new SQLite-backed ProfileRepository.
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db.SqlDB}
}

// Upsert writes the profile row keyed by profile.ID. The account tier is
// only set on insert; updates leave it untouched.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *domain.Profile) error {
	interests, err := json.Marshal(nonNil(profile.Interests))
	if err != nil {
		return fmt.Errorf("encode interests: %w", err)
	}

	tier := profile.AccountTier
	if tier == "" {
		tier = domain.AccountTierFree
	}

	now := time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, age, gender, occupation, country, interests, usage_purpose, account_tier, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     full_name = excluded.full_name,
		     age = excluded.age,
		     gender = excluded.gender,
		     occupation = excluded.occupation,
		     country = excluded.country,
		     interests = excluded.interests,
		     usage_purpose = excluded.usage_purpose,
		     updated_at = excluded.updated_at`,
		profile.ID, profile.FullName, profile.Age, profile.Gender, profile.Occupation,
		profile.Country, string(interests), profile.UsagePurpose, tier, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT account_tier, created_at FROM users WHERE id = ?`, profile.ID,
	).Scan(&profile.AccountTier, &profile.CreatedAt); err != nil {
		return fmt.Errorf("read back profile: %w", err)
	}
	profile.UpdatedAt = now
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	p := &domain.Profile{}
	var age sql.NullInt64
	var interests string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, age, gender, occupation, country, interests, usage_purpose, account_tier, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	).Scan(&p.ID, &p.FullName, &age, &p.Gender, &p.Occupation, &p.Country,
		&interests, &p.UsagePurpose, &p.AccountTier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	p.Age = int(age.Int64)
	if err := json.Unmarshal([]byte(interests), &p.Interests); err != nil {
		return nil, fmt.Errorf("decode interests: %w", err)
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
