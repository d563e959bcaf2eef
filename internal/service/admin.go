package service

import (
	"context"
	"fmt"

	"github.com/msomdec/captionly/internal/domain"
)

// AdminPerPage is the admin table page size.
const AdminPerPage = 10

// Admin dashboard tabs.
const (
	AdminTabUsers       = "users"
	AdminTabGenerations = "generations"
)

// AdminTable is one page of the selected admin tab.
type AdminTable struct {
	Tab         string
	Search      string
	Page        int
	TotalPages  int
	Total       int
	Users       []domain.AdminUser
	Generations []domain.Generation
}

// AdminService serves the read-only admin dashboard.
type AdminService struct {
	repo    domain.AdminRepository
	isAdmin func(email string) bool
}

// NewAdminService creates a new AdminService. isAdmin decides which emails
// may see the dashboard.
func NewAdminService(repo domain.AdminRepository, isAdmin func(email string) bool) *AdminService {
	return &AdminService{repo: repo, isAdmin: isAdmin}
}

// Authorize returns ErrForbidden unless identity is an administrator.
func (s *AdminService) Authorize(identity *domain.Identity) error {
	if identity == nil || s.isAdmin == nil || !s.isAdmin(identity.Email) {
		return domain.ErrForbidden
	}
	return nil
}

// Stats returns the dashboard totals.
func (s *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	return stats, nil
}

// Table returns one page of the given tab. Unknown tabs fall back to users
// and pages below 1 are treated as 1.
func (s *AdminService) Table(ctx context.Context, tab, search string, page int) (*AdminTable, error) {
	if tab != AdminTabGenerations {
		tab = AdminTabUsers
	}
	page = max(page, 1)
	q := domain.PageQuery{Search: search, Page: page, PerPage: AdminPerPage}

	t := &AdminTable{Tab: tab, Search: search, Page: page}
	var err error
	switch tab {
	case AdminTabGenerations:
		t.Generations, t.Total, err = s.repo.ListGenerations(ctx, q)
	default:
		t.Users, t.Total, err = s.repo.ListUsers(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", tab, err)
	}
	t.TotalPages = totalPages(t.Total, AdminPerPage)
	return t, nil
}

func totalPages(total, perPage int) int {
	if total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// HasPrev reports whether a page precedes this one.
func (t *AdminTable) HasPrev() bool { return t.Page > 1 }

// HasNext reports whether a page follows this one.
func (t *AdminTable) HasNext() bool { return t.Page < t.TotalPages }
