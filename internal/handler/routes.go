package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
)

// Services are the application services the routes dispatch to.
type Services struct {
	Credentials domain.CredentialStore
	SignUps     *service.SignUpService
	Profiles    *service.ProfileService
	Uploads     *service.UploadService
	Captions    *service.CaptionService
	Admin       *service.AdminService
	Limiter     *service.TokenBucket
}

// Options carry the HTTP-level settings.
type Options struct {
	SiteURL        string
	CookieSecure   bool
	SessionTTL     time.Duration
	MaxUploadBytes int64

	// TrustProxyHeaders keys rate limiting on X-Forwarded-For. Enable only
	// behind a reverse proxy that overwrites the header.
	TrustProxyHeaders bool
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, svc Services, opts Options) {
	creds := svc.Credentials
	home := &HomeHandler{pages: pages{admin: svc.Admin}}
	auth := NewAuthHandler(creds, svc.SignUps, svc.Admin, opts.SiteURL, opts.CookieSecure, opts.SessionTTL)
	profile := NewProfileHandler(svc.Profiles, svc.Admin)
	app := NewAppHandler(svc.Profiles, svc.Uploads, svc.Captions, svc.Admin, opts.MaxUploadBytes)
	admin := NewAdminHandler(svc.Admin)
	storage := NewStorageHandler(svc.Uploads)

	limited := func(h http.HandlerFunc) http.Handler {
		if svc.Limiter == nil {
			return h
		}
		return RateLimit(svc.Limiter, opts.TrustProxyHeaders, h)
	}
	optional := func(h http.HandlerFunc) http.Handler { return OptionalAuth(creds, h) }
	protected := func(h http.HandlerFunc) http.Handler { return RequireAuth(creds, h) }
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(creds, RequireAdmin(svc.Admin, h))
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	mux.Handle("GET /", optional(home.HandleHome))

	mux.Handle("GET /sign-up", optional(auth.HandleSignUpPage))
	mux.Handle("POST /sign-up", limited(auth.HandleSignUp))
	mux.Handle("GET /sign-in", optional(auth.HandleSignInPage))
	mux.Handle("POST /sign-in", limited(auth.HandleSignIn))
	mux.Handle("GET /forgot-password", optional(auth.HandleForgotPasswordPage))
	mux.Handle("POST /forgot-password", limited(auth.HandleForgotPassword))
	mux.HandleFunc("GET /auth/callback", auth.HandleCallback)
	mux.HandleFunc("POST /sign-out", auth.HandleSignOut)

	mux.Handle("GET /app", protected(app.HandleApp))
	// JSON actions answer anonymous callers themselves with a JSON 401.
	mux.Handle("POST /app/caption", optional(app.HandleCaption))
	mux.Handle("POST /app/upload", optional(app.HandleUpload))

	mux.Handle("GET /profile", protected(profile.HandleProfile))
	mux.Handle("POST /profile", protected(profile.HandleUpdateProfile))
	mux.Handle("GET /profile/reset-password", protected(auth.HandleResetPasswordPage))
	mux.Handle("POST /profile/reset-password", protected(auth.HandleResetPassword))

	mux.Handle("GET /admin", adminOnly(admin.HandleDashboard))
	mux.Handle("GET /admin/table", adminOnly(admin.HandleTable))

	mux.HandleFunc("GET /storage/{bucket}/{path...}", storage.HandleObject)
}
