package handler_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/captionly/internal/handler"
	"github.com/msomdec/captionly/internal/repository/sqlite"
	"github.com/msomdec/captionly/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-0123456789"

const adminEmail = "admin@example.com"

// recordingMailer keeps sent mail so tests can follow emailed links.
type recordingMailer struct {
	mu     sync.Mutex
	bodies []string
}

func (m *recordingMailer) Send(_ context.Context, _, _, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies = append(m.bodies, body)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bodies)
}

// lastLink returns the path and query of the most recent emailed link.
func (m *recordingMailer) lastLink(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.bodies) == 0 {
		t.Fatal("no mail sent")
	}
	body := m.bodies[len(m.bodies)-1]
	i := strings.Index(body, "http")
	if i < 0 {
		t.Fatalf("no link in %q", body)
	}
	u, err := url.Parse(strings.TrimSpace(body[i:]))
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return u.RequestURI()
}

type testEnv struct {
	db     *sqlite.DB
	svc    handler.Services
	mailer *recordingMailer
	srv    *httptest.Server
}

type envOption func(*handler.Services)

func withLimiter(tb *service.TokenBucket) envOption {
	return func(s *handler.Services) { s.Limiter = tb }
}

func newTestEnv(t *testing.T, requireConfirmation bool, opts ...envOption) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	mailer := &recordingMailer{}
	creds := service.NewCredentialService(db.Identities(), db.Sessions(), db.Tokens(), mailer, service.CredentialOptions{
		JWTSecret:                testJWTSecret,
		BcryptCost:               4,
		SessionTTL:               time.Hour,
		TokenTTL:                 time.Hour,
		RequireEmailConfirmation: requireConfirmation,
	})
	uploads := service.NewUploadService(db.Objects(), testJWTSecret, 0, time.Hour)
	svc := handler.Services{
		Credentials: creds,
		SignUps:     service.NewSignUpService(creds, db.Profiles()),
		Profiles:    service.NewProfileService(db.Profiles(), db.Generations(), db.Objects()),
		Uploads:     uploads,
		Captions:    service.NewCaptionService(db.Generations()),
		Admin:       service.NewAdminService(db.Admin(), func(email string) bool { return email == adminEmail }),
	}
	for _, opt := range opts {
		opt(&svc)
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, svc, handler.Options{
		SiteURL:    "http://captionly.test",
		SessionTTL: time.Hour,
	})
	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)

	return &testEnv{db: db, svc: svc, mailer: mailer, srv: srv}
}

// client returns a client with its own cookie jar that does not follow
// redirects.
func (e *testEnv) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) post(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(e.srv.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(e.srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// signUpAndIn registers email with a full profile and signs in.
func (e *testEnv) signUpAndIn(t *testing.T, c *http.Client, email string) {
	t.Helper()
	form := registrationForm()
	form.Set("email", email)
	resp := e.post(t, c, "/sign-up", form)
	if got := noticeOf(t, resp); got.Get("type") != "success" {
		t.Fatalf("sign up %s: %v", email, got)
	}

	resp = e.post(t, c, "/sign-in", url.Values{"email": {email}, "password": {"secret1"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/app" {
		t.Fatalf("sign in %s: status %d location %q", email, resp.StatusCode, resp.Header.Get("Location"))
	}
}

func registrationForm() url.Values {
	return url.Values{
		"email":         {"a@x.com"},
		"password":      {"secret1"},
		"full_name":     {"A B"},
		"age":           {"30"},
		"gender":        {"male"},
		"occupation":    {"Student"},
		"country":       {"Spain"},
		"interests":     {"Art & Design"},
		"usage_purpose": {"testing"},
	}
}

// noticeOf asserts resp is a 303 and returns the query of its Location.
func noticeOf(t *testing.T, resp *http.Response) url.Values {
	t.Helper()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	return loc.Query()
}
