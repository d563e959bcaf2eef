package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
	"github.com/msomdec/captionly/internal/view"
)

const (
	msgUnexpected          = "An unexpected error occurred. Please try again."
	msgEmailRequired       = "Email is required"
	msgResetFailed         = "Could not reset password"
	msgResetSent           = "Check your email for a link to reset your password."
	msgPasswordsRequired   = "Password and confirm password are required"
	msgPasswordsMismatch   = "Passwords do not match"
	msgPasswordUpdateFail  = "Password update failed"
	msgPasswordUpdated     = "Password updated"
	msgVerificationInvalid = "Email link is invalid or has expired"
)

// AuthHandler handles the sign-up, sign-in and password flows.
type AuthHandler struct {
	pages
	creds        domain.CredentialStore
	signups      *service.SignUpService
	siteURL      string
	cookieSecure bool
	sessionTTL   time.Duration
}

// NewAuthHandler creates a new AuthHandler. siteURL is the public origin
// used in emailed links.
func NewAuthHandler(creds domain.CredentialStore, signups *service.SignUpService, admin *service.AdminService, siteURL string, cookieSecure bool, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		pages:        pages{admin: admin},
		creds:        creds,
		signups:      signups,
		siteURL:      strings.TrimRight(siteURL, "/"),
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
	}
}

// HandleSignUpPage renders the registration form.
func (h *AuthHandler) HandleSignUpPage(w http.ResponseWriter, r *http.Request) {
	view.SignUpPage(view.NewSignUpData(h.page(r, "Sign up"))).Render(r.Context(), w)
}

// HandleSignUp processes a registration form submission. Every outcome is
// a redirect back to /sign-up carrying a status banner.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		encodedRedirect(w, r, noticeError, "/sign-up", service.MsgMissingField)
		return
	}

	_, err := h.signups.SignUp(r.Context(), parseRegistration(r), h.siteURL+"/auth/callback")
	if err != nil {
		var (
			verr  *domain.ValidationError
			idErr *domain.IdentityError
			pwErr *domain.ProfileWriteError
		)
		switch {
		case errors.As(err, &verr):
			encodedRedirect(w, r, noticeError, "/sign-up", verr.Message)
		case errors.As(err, &idErr):
			encodedRedirect(w, r, noticeError, "/sign-up", idErr.Message)
		case errors.As(err, &pwErr):
			encodedRedirect(w, r, noticeError, "/sign-up", service.MsgProfileWriteFailed)
		default:
			slog.Error("sign up", "error", err)
			encodedRedirect(w, r, noticeError, "/sign-up", msgUnexpected)
		}
		return
	}

	encodedRedirect(w, r, noticeSuccess, "/sign-up", service.MsgSignUpSuccess)
}

// parseRegistration assembles a RegistrationRequest from form fields. An
// age that does not parse is left at zero and reported as missing.
func parseRegistration(r *http.Request) domain.RegistrationRequest {
	age, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("age")))
	return domain.RegistrationRequest{
		Email:        r.PostFormValue("email"),
		Password:     r.PostFormValue("password"),
		FullName:     r.PostFormValue("full_name"),
		Age:          age,
		Gender:       r.PostFormValue("gender"),
		Occupation:   r.PostFormValue("occupation"),
		Country:      r.PostFormValue("country"),
		Interests:    formInterests(r),
		UsagePurpose: r.PostFormValue("usage_purpose"),
	}
}

// formInterests returns the submitted interests in order, trimmed, with
// blank entries dropped. Repeated values are kept and count toward the
// limit.
func formInterests(r *http.Request) []string {
	var out []string
	for _, v := range r.PostForm["interests"] {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// HandleSignInPage renders the sign-in form.
func (h *AuthHandler) HandleSignInPage(w http.ResponseWriter, r *http.Request) {
	view.SignInPage(h.page(r, "Sign in")).Render(r.Context(), w)
}

// HandleSignIn verifies credentials, sets the session cookie and sends the
// user to the app.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	session, err := h.creds.SignInWithPassword(r.Context(), r.PostFormValue("email"), r.PostFormValue("password"))
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			encodedRedirect(w, r, noticeError, "/sign-in", authErr.Message)
			return
		}
		slog.Error("sign in", "error", err)
		encodedRedirect(w, r, noticeError, "/sign-in", msgUnexpected)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, "/app", http.StatusSeeOther)
}

// HandleForgotPasswordPage renders the password recovery form.
func (h *AuthHandler) HandleForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	view.ForgotPasswordPage(h.page(r, "Reset password")).Render(r.Context(), w)
}

// HandleForgotPassword emails a recovery link that lands on the reset
// password page.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		encodedRedirect(w, r, noticeError, "/forgot-password", msgEmailRequired)
		return
	}

	redirectTo := h.siteURL + "/auth/callback?redirect_to=/profile/reset-password"
	if err := h.creds.ResetPasswordForEmail(r.Context(), email, redirectTo); err != nil {
		slog.Error("reset password for email", "error", err)
		encodedRedirect(w, r, noticeError, "/forgot-password", msgResetFailed)
		return
	}

	if callback := localPath(r.PostFormValue("callbackUrl"), ""); callback != "" {
		http.Redirect(w, r, callback, http.StatusSeeOther)
		return
	}
	encodedRedirect(w, r, noticeSuccess, "/forgot-password", msgResetSent)
}

// HandleCallback redeems an emailed verification or recovery link, signs
// the user in and forwards to redirect_to.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenType := domain.TokenType(q.Get("type"))
	if tokenType != domain.TokenTypeSignup && tokenType != domain.TokenTypeRecovery {
		tokenType = domain.TokenTypeSignup
	}

	session, err := h.creds.VerifyOTP(r.Context(), q.Get("token"), tokenType)
	if err != nil {
		var authErr *domain.AuthError
		if !errors.As(err, &authErr) {
			slog.Error("verify email link", "error", err)
		}
		encodedRedirect(w, r, noticeError, "/sign-in", msgVerificationInvalid)
		return
	}

	h.setSessionCookie(w, session)
	http.Redirect(w, r, localPath(q.Get("redirect_to"), "/app"), http.StatusSeeOther)
}

// HandleSignOut revokes the session and clears the cookie.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(authCookieName); err == nil {
		if err := h.creds.SignOut(r.Context(), cookie.Value); err != nil {
			slog.Error("sign out", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

// HandleResetPasswordPage renders the new password form.
func (h *AuthHandler) HandleResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	view.ResetPasswordPage(h.page(r, "Reset password")).Render(r.Context(), w)
}

// HandleResetPassword sets a new password for the signed-in identity.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	const path = "/profile/reset-password"
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirmPassword")
	if password == "" || confirm == "" {
		encodedRedirect(w, r, noticeError, path, msgPasswordsRequired)
		return
	}
	if password != confirm {
		encodedRedirect(w, r, noticeError, path, msgPasswordsMismatch)
		return
	}

	if err := h.creds.UpdatePassword(r.Context(), identity.ID, password); err != nil {
		slog.Warn("update password", "identity_id", identity.ID, "error", err)
		encodedRedirect(w, r, noticeError, path, msgPasswordUpdateFail)
		return
	}
	encodedRedirect(w, r, noticeSuccess, path, msgPasswordUpdated)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, session *domain.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    session.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
}
