package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/msomdec/captionly/internal/domain"
)

// ProfileService reads and edits the profile of a signed-in user.
type ProfileService struct {
	profiles    domain.ProfileRepository
	generations domain.GenerationRepository
	objects     domain.ObjectStore
}

// NewProfileService creates a new ProfileService.
func NewProfileService(profiles domain.ProfileRepository, generations domain.GenerationRepository, objects domain.ObjectStore) *ProfileService {
	return &ProfileService{profiles: profiles, generations: generations, objects: objects}
}

// Get returns the profile for an identity, or nil if none was written yet.
func (s *ProfileService) Get(ctx context.Context, identityID string) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update validates and writes the profile, creating it if sign-up could
// not. The same rules as registration apply.
func (s *ProfileService) Update(ctx context.Context, identityID string, in domain.ProfileInput) (*domain.Profile, error) {
	if err := validateProfile(in, true); err != nil {
		return nil, err
	}
	p := normalizeProfile(identityID, in)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return p, nil
}

// Usage summarises an identity's caption and upload activity.
func (s *ProfileService) Usage(ctx context.Context, identityID string) (*domain.UsageStats, error) {
	tier := domain.AccountTierFree
	p, err := s.Get(ctx, identityID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		tier = p.AccountTier
	}

	count, tokens, err := s.generations.CountByUser(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("count generations: %w", err)
	}
	images, err := s.objects.CountByOwner(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("count uploads: %w", err)
	}

	return &domain.UsageStats{
		UserID:           identityID,
		TotalGenerations: count,
		TokensUsed:       tokens,
		TokensRemaining:  max(domain.TokenQuota(tier)-tokens, 0),
		ImagesProcessed:  images,
		AccountTier:      tier,
	}, nil
}
