package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
	"github.com/msomdec/captionly/internal/view"
)

const (
	msgProfileUpdated = "Profile updated"
	msgProfileFailed  = "Profile update failed"
)

// ProfileHandler serves the profile page.
type ProfileHandler struct {
	pages
	profiles *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *service.ProfileService, admin *service.AdminService) *ProfileHandler {
	return &ProfileHandler{pages: pages{admin: admin}, profiles: profiles}
}

// HandleProfile renders the signed-in identity's profile and usage.
func (h *ProfileHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
		return
	}

	profile, err := h.profiles.Get(r.Context(), identity.ID)
	if err != nil {
		slog.Error("get profile", "identity_id", identity.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	usage, err := h.profiles.Usage(r.Context(), identity.ID)
	if err != nil {
		slog.Error("get usage", "identity_id", identity.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	view.ProfilePage(view.ProfileData{
		SignUpData: view.NewSignUpData(h.page(r, "Profile")),
		Identity:   identity,
		Profile:    profile,
		Usage:      usage,
	}).Render(r.Context(), w)
}

// HandleUpdateProfile writes the profile form. It also completes profiles
// that could not be written at sign-up.
func (h *ProfileHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := r.ParseForm(); err != nil {
		encodedRedirect(w, r, noticeError, "/profile", service.MsgMissingField)
		return
	}

	age, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("age")))
	in := domain.ProfileInput{
		FullName:     r.PostFormValue("full_name"),
		Age:          age,
		Gender:       r.PostFormValue("gender"),
		Occupation:   r.PostFormValue("occupation"),
		Country:      r.PostFormValue("country"),
		Interests:    formInterests(r),
		UsagePurpose: r.PostFormValue("usage_purpose"),
	}

	if _, err := h.profiles.Update(r.Context(), identity.ID, in); err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			encodedRedirect(w, r, noticeError, "/profile", verr.Message)
			return
		}
		slog.Error("update profile", "identity_id", identity.ID, "error", err)
		encodedRedirect(w, r, noticeError, "/profile", msgProfileFailed)
		return
	}
	encodedRedirect(w, r, noticeSuccess, "/profile", msgProfileUpdated)
}
