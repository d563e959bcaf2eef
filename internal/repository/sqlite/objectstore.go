package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/captionly/internal/domain"
)

// objectStore implements domain.ObjectStore using SQLite BLOBs.
type objectStore struct {
	db *sql.DB
}

func (s *objectStore) Put(ctx context.Context, obj *domain.StoredObject, data []byte) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO storage_objects (bucket, path, owner_id, content_type, size, cache_control, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		obj.Bucket, obj.Path, obj.OwnerID, obj.ContentType, len(data), obj.CacheControl, data, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateObject
		}
		return fmt.Errorf("save object: %w", err)
	}
	obj.Size = int64(len(data))
	obj.CreatedAt = now
	return nil
}

func (s *objectStore) Get(ctx context.Context, bucket, path string) (*domain.StoredObject, []byte, error) {
	obj := &domain.StoredObject{}
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT bucket, path, owner_id, content_type, size, cache_control, data, created_at
		 FROM storage_objects WHERE bucket = ? AND path = ?`, bucket, path,
	).Scan(&obj.Bucket, &obj.Path, &obj.OwnerID, &obj.ContentType, &obj.Size, &obj.CacheControl, &data, &obj.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return obj, data, nil
}

func (s *objectStore) Delete(ctx context.Context, bucket, path string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM storage_objects WHERE bucket = ? AND path = ?", bucket, path,
	)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *objectStore) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM storage_objects WHERE owner_id = ?", ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count objects: %w", err)
	}
	return n, nil
}
