package domain

import (
	"context"
	"time"
)

// AdminStats are the totals shown at the top of the admin dashboard.
type AdminStats struct {
	TotalUsers       int
	PremiumUsers     int
	FreeUsers        int
	TotalGenerations int
	TotalTokensUsed  int
}

// UserMetadata is the optional profile data shown next to an identity in
// the admin view. Every field is optional because an identity may exist
// without a profile row.
type UserMetadata struct {
	FullName     *string
	Age          *int
	Gender       *string
	Occupation   *string
	Country      *string
	Interests    []string
	UsagePurpose *string
}

// AdminUser is one row of the admin users table.
type AdminUser struct {
	ID               string
	Email            string
	CreatedAt        time.Time
	LastSignInAt     *time.Time
	Metadata         UserMetadata
	AccountTier      string
	TotalGenerations int
	TokensUsed       int
	TokensRemaining  int
}

// PageQuery selects a page of a searchable admin table. Page is 1-based.
type PageQuery struct {
	Search  string
	Page    int
	PerPage int
}

// Offset returns the index of the first row on the page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// AdminRepository serves the admin dashboard's read-only queries.
type AdminRepository interface {
	Stats(ctx context.Context) (*AdminStats, error)
	ListUsers(ctx context.Context, q PageQuery) ([]AdminUser, int, error)
	ListGenerations(ctx context.Context, q PageQuery) ([]Generation, int, error)
}
