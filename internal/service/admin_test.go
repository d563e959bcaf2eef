package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
)

func TestAdminService_Authorize(t *testing.T) {
	admin := service.NewAdminService(nil, func(email string) bool { return email == "boss@example.com" })

	if err := admin.Authorize(&domain.Identity{Email: "boss@example.com"}); err != nil {
		t.Fatalf("admin should be authorized, got %v", err)
	}
	if err := admin.Authorize(&domain.Identity{Email: "user@example.com"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := admin.Authorize(nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for nil identity, got %v", err)
	}
}

func TestAdminService_TablePaging(t *testing.T) {
	creds, _, db := newTestCredentials(t, false)
	ctx := context.Background()
	for i := range 23 {
		if _, err := creds.SignUp(ctx, fmt.Sprintf("user%02d@example.com", i), "password123", callbackURL); err != nil {
			t.Fatalf("SignUp %d: %v", i, err)
		}
	}
	admin := service.NewAdminService(db.Admin(), func(string) bool { return true })

	tests := []struct {
		page     int
		wantPage int
		wantRows int
	}{
		{1, 1, 10},
		{2, 2, 10},
		{3, 3, 3},
		{4, 4, 0},
		{0, 1, 10},
		{-3, 1, 10},
	}
	for _, tt := range tests {
		table, err := admin.Table(ctx, "users", "", tt.page)
		if err != nil {
			t.Fatalf("Table page %d: %v", tt.page, err)
		}
		if table.Page != tt.wantPage || len(table.Users) != tt.wantRows {
			t.Fatalf("page %d: got page %d with %d rows, want page %d with %d rows",
				tt.page, table.Page, len(table.Users), tt.wantPage, tt.wantRows)
		}
		if table.Total != 23 || table.TotalPages != 3 {
			t.Fatalf("total = %d, pages = %d; want 23, 3", table.Total, table.TotalPages)
		}
	}
}

func TestAdminService_TableTabs(t *testing.T) {
	creds, _, db := newTestCredentials(t, false)
	ctx := context.Background()
	identity, err := creds.SignUp(ctx, "tabs@example.com", "password123", callbackURL)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := service.NewCaptionService(db.Generations()).Generate(ctx, identity.ID, "/img.png"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	admin := service.NewAdminService(db.Admin(), func(string) bool { return true })

	table, err := admin.Table(ctx, "generations", "integration", 1)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if table.Tab != service.AdminTabGenerations || len(table.Generations) != 1 {
		t.Fatalf("expected one generation, got tab %q with %d rows", table.Tab, len(table.Generations))
	}
	if table.Generations[0].UserEmail != "tabs@example.com" {
		t.Fatalf("user email = %q", table.Generations[0].UserEmail)
	}

	table, err = admin.Table(ctx, "bogus", "TABS", 1)
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if table.Tab != service.AdminTabUsers || len(table.Users) != 1 {
		t.Fatalf("unknown tab should fall back to users, got %q with %d rows", table.Tab, len(table.Users))
	}
	if table.TotalPages != 1 {
		t.Fatalf("total pages = %d, want 1", table.TotalPages)
	}

	stats, err := admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalUsers != 1 || stats.FreeUsers != 1 || stats.TotalGenerations != 1 || stats.TotalTokensUsed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
