package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/captionly/internal/domain"
)

// PlaceholderCaption is returned until a caption model is wired in.
const PlaceholderCaption = "Example caption - API integration pending"

// CaptionService produces captions for uploaded images and records each
// request as a generation.
type CaptionService struct {
	generations domain.GenerationRepository
	now         func() time.Time
}

// NewCaptionService creates a new CaptionService.
func NewCaptionService(generations domain.GenerationRepository) *CaptionService {
	return &CaptionService{generations: generations, now: time.Now}
}

// Generate returns a caption for imageURL on behalf of identityID.
func (s *CaptionService) Generate(ctx context.Context, identityID, imageURL string) (*domain.Generation, error) {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, fmt.Errorf("%w: image URL is required", domain.ErrInvalidInput)
	}

	start := s.now()
	g := &domain.Generation{
		ID:         uuid.NewString(),
		UserID:     identityID,
		ImageURL:   imageURL,
		Caption:    PlaceholderCaption,
		TokensUsed: 1,
	}
	g.ProcessingTime = s.now().Sub(start)

	if err := s.generations.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("record generation: %w", err)
	}
	return g, nil
}
