package handler

import (
	"net/http"

	"github.com/msomdec/captionly/internal/service"
	"github.com/msomdec/captionly/internal/view"
)

// pages builds the layout data shared by every rendered page.
type pages struct {
	admin *service.AdminService
}

func (p pages) page(r *http.Request, title string) view.Page {
	pg := view.Page{Title: title, Notice: NoticeFromRequest(r)}
	if identity := IdentityFromContext(r.Context()); identity != nil {
		pg.Email = identity.Email
		pg.IsAdmin = p.admin != nil && p.admin.Authorize(identity) == nil
	}
	return pg
}

func renderErrorPage(w http.ResponseWriter, r *http.Request, status int, heading, message string) {
	view.ErrorPage(status, heading, message).Render(r.Context(), w)
}
