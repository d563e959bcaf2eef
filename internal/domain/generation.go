package domain

import (
	"context"
	"time"
)

// Generation records one caption request.
type Generation struct {
	ID              string
	UserID          string
	ImageURL        string
	Caption         string
	ConfidenceScore float64
	ProcessingTime  time.Duration
	TokensUsed      int
	CreatedAt       time.Time
	UserEmail       string // populated by admin listings only
}

// UsageStats summarises one user's activity.
type UsageStats struct {
	UserID           string
	TotalGenerations int
	TokensUsed       int
	TokensRemaining  int
	ImagesProcessed  int
	AccountTier      string
}

// TokenQuota returns the caption token allowance for an account tier.
func TokenQuota(tier string) int {
	if tier == AccountTierPremium {
		return 1000
	}
	return 50
}

type GenerationRepository interface {
	Create(ctx context.Context, g *Generation) error
	CountByUser(ctx context.Context, userID string) (generations int, tokens int, err error)
}
