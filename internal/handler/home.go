package handler

import (
	"net/http"

	"github.com/msomdec/captionly/internal/view"
)

// HomeHandler serves the landing page.
type HomeHandler struct {
	pages
}

// HandleHome renders the home page. Unknown paths fall through the "GET /"
// pattern and get a 404 page.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		renderErrorPage(w, r, http.StatusNotFound, "Not Found", "The page you are looking for does not exist.")
		return
	}
	view.HomePage(h.page(r, "")).Render(r.Context(), w)
}
