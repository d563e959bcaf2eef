package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/captionly/internal/domain"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := db.Sessions()
	ctx := context.Background()
	identity := createIdentity(t, db, "session@example.com")

	session := &domain.Session{
		ID:         uuid.NewString(),
		IdentityID: identity.ID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	if err := repo.Create(ctx, session); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := repo.GetByID(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if found.IdentityID != identity.ID {
		t.Fatalf("expected identity %s, got %s", identity.ID, found.IdentityID)
	}

	if err := repo.Delete(ctx, session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, session.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	db := newTestDB(t)
	repo := db.Sessions()
	ctx := context.Background()
	identity := createIdentity(t, db, "expired@example.com")

	expired := &domain.Session{ID: uuid.NewString(), IdentityID: identity.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	live := &domain.Session{ID: uuid.NewString(), IdentityID: identity.ID, ExpiresAt: time.Now().Add(time.Hour)}
	for _, s := range []*domain.Session{expired, live} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	n, err := repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired session removed, got %d", n)
	}
	if _, err := repo.GetByID(ctx, live.ID); err != nil {
		t.Fatalf("live session should remain: %v", err)
	}
}
