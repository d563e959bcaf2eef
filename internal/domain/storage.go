package domain

import (
	"context"
	"time"
)

// StoredObject holds metadata about an object in a storage bucket.
type StoredObject struct {
	Bucket       string
	Path         string
	OwnerID      string
	ContentType  string
	Size         int64
	CacheControl string
	CreatedAt    time.Time
}

// ObjectStore abstracts bucketed object storage. The SQLite implementation
// keeps bytes as BLOBs; the interface allows swapping to a filesystem or S3.
type ObjectStore interface {
	// Put stores data at bucket/path. It never overwrites: an existing
	// object yields ErrDuplicateObject.
	Put(ctx context.Context, obj *StoredObject, data []byte) error
	Get(ctx context.Context, bucket, path string) (*StoredObject, []byte, error)
	Delete(ctx context.Context, bucket, path string) error
	CountByOwner(ctx context.Context, ownerID string) (int, error)
}
