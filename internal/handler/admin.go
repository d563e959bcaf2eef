package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msomdec/captionly/internal/service"
	"github.com/msomdec/captionly/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// AdminHandler serves the admin dashboard.
type AdminHandler struct {
	pages
	admin *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{pages: pages{admin: admin}, admin: admin}
}

// tableSignals are the datastar signals the dashboard sends with each
// table request.
type tableSignals struct {
	Tab    string `json:"tab"`
	Search string `json:"search"`
	Page   int    `json:"page"`
}

// HandleDashboard renders the full dashboard. tab, search and page query
// parameters select the initial table.
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		slog.Error("admin stats", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	table, err := h.admin.Table(r.Context(), q.Get("tab"), q.Get("search"), page)
	if err != nil {
		slog.Error("admin table", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view.AdminPage(view.AdminData{Page: h.page(r, "Admin"), Stats: stats, Table: table}).Render(r.Context(), w)
}

// HandleTable replaces the admin table via SSE.
func (h *AdminHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	var signals tableSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if signals.Tab == "" {
		q := r.URL.Query()
		signals.Tab, signals.Search = q.Get("tab"), q.Get("search")
		signals.Page, _ = strconv.Atoi(q.Get("page"))
	}

	table, err := h.admin.Table(r.Context(), signals.Tab, signals.Search, signals.Page)
	if err != nil {
		slog.Error("admin table", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sse := datastar.NewSSE(w, r)
	sse.PatchElementTempl(view.AdminTableFragment(table))
}
