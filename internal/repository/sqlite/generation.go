package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/msomdec/captionly/internal/domain"
)

// GenerationRepository implements domain.GenerationRepository using SQLite.
type GenerationRepository struct {
	db *sql.DB
}

// NewGenerationRepository creates a new SQLite-backed GenerationRepository.
func NewGenerationRepository(db *DB) *GenerationRepository {
	return &GenerationRepository{db: db.SqlDB}
}

func (r *GenerationRepository) Create(ctx context.Context, g *domain.Generation) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO generations (id, user_id, image_url, caption, confidence_score, processing_time_ms, tokens_used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.ImageURL, g.Caption, g.ConfidenceScore, g.ProcessingTime.Milliseconds(), g.TokensUsed, now,
	)
	if err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	g.CreatedAt = now
	return nil
}

// CountByUser returns how many generations a user has made and the tokens
// they consumed.
func (r *GenerationRepository) CountByUser(ctx context.Context, userID string) (int, int, error) {
	var count, tokens int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(tokens_used), 0) FROM generations WHERE user_id = ?`, userID,
	).Scan(&count, &tokens)
	if err != nil {
		return 0, 0, fmt.Errorf("count generations: %w", err)
	}
	return count, tokens, nil
}
