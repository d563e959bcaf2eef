package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
)

func newTestProfiles(t *testing.T) (*service.ProfileService, *service.CaptionService, *service.UploadService, string) {
	t.Helper()
	creds, _, db := newTestCredentials(t, false)
	identity, err := creds.SignUp(context.Background(), "profile@example.com", "password123", callbackURL)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	profiles := service.NewProfileService(db.Profiles(), db.Generations(), db.Objects())
	captions := service.NewCaptionService(db.Generations())
	uploads := service.NewUploadService(db.Objects(), testJWTSecret, 0, 0)
	return profiles, captions, uploads, identity.ID
}

func TestProfileService_GetMissing(t *testing.T) {
	profiles, _, _, id := newTestProfiles(t)

	p, err := profiles.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p != nil {
		t.Fatalf("expected no profile yet, got %+v", p)
	}
}

func TestProfileService_Update(t *testing.T) {
	profiles, _, _, id := newTestProfiles(t)
	ctx := context.Background()

	in := validRequest().ProfileInput()
	if _, err := profiles.Update(ctx, id, in); err != nil {
		t.Fatalf("Update: %v", err)
	}

	in.FullName = "Renamed"
	in.Interests = []string{"Travel", "Food"}
	if _, err := profiles.Update(ctx, id, in); err != nil {
		t.Fatalf("second Update: %v", err)
	}

	p, err := profiles.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.FullName != "Renamed" || len(p.Interests) != 2 {
		t.Fatalf("unexpected profile after update: %+v", p)
	}

	in.Age = 5
	_, err = profiles.Update(ctx, id, in)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Reason != domain.ReasonAgeOutOfRange {
		t.Fatalf("expected age validation error, got %v", err)
	}
}

func TestProfileService_Usage(t *testing.T) {
	profiles, captions, uploads, id := newTestProfiles(t)
	ctx := context.Background()

	if _, err := uploads.Upload(ctx, id, pngBytes); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	for range 3 {
		if _, err := captions.Generate(ctx, id, "/storage/img-store/uploads/a.png"); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	usage, err := profiles.Usage(ctx, id)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if usage.AccountTier != domain.AccountTierFree {
		t.Fatalf("tier = %q, want free", usage.AccountTier)
	}
	if usage.TotalGenerations != 3 || usage.TokensUsed != 3 {
		t.Fatalf("generations = %d, tokens = %d; want 3, 3", usage.TotalGenerations, usage.TokensUsed)
	}
	if usage.TokensRemaining != domain.TokenQuota(domain.AccountTierFree)-3 {
		t.Fatalf("tokens remaining = %d", usage.TokensRemaining)
	}
	if usage.ImagesProcessed != 1 {
		t.Fatalf("images processed = %d, want 1", usage.ImagesProcessed)
	}
}
