package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/captionly/internal/domain"
)

func TestGenerationRepository_CreateAndCount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	identity := createIdentity(t, db, "gen@example.com")
	other := createIdentity(t, db, "other@example.com")

	generations, tokens, err := db.Generations().CountByUser(ctx, identity.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if generations != 0 || tokens != 0 {
		t.Fatalf("expected no usage, got %d generations and %d tokens", generations, tokens)
	}

	for _, g := range []*domain.Generation{
		{ID: uuid.NewString(), UserID: identity.ID, ImageURL: "/a.png", Caption: "one", TokensUsed: 1, ProcessingTime: 250 * time.Millisecond},
		{ID: uuid.NewString(), UserID: identity.ID, ImageURL: "/b.png", Caption: "two", TokensUsed: 4},
		{ID: uuid.NewString(), UserID: other.ID, ImageURL: "/c.png", Caption: "three", TokensUsed: 9},
	} {
		if err := db.Generations().Create(ctx, g); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if g.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be set")
		}
	}

	generations, tokens, err = db.Generations().CountByUser(ctx, identity.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if generations != 2 || tokens != 5 {
		t.Fatalf("expected 2 generations and 5 tokens, got %d and %d", generations, tokens)
	}
}

func TestGenerationRepository_RequiresIdentity(t *testing.T) {
	db := newTestDB(t)

	err := db.Generations().Create(context.Background(), &domain.Generation{
		ID: uuid.NewString(), UserID: "missing", ImageURL: "/x.png", Caption: "orphan",
	})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown user")
	}
}
