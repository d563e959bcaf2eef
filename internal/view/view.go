// Package view renders the server-side HTML pages and datastar fragments.
package view

import (
	"embed"
	"html/template"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/msomdec/captionly/internal/domain"
	"github.com/msomdec/captionly/internal/service"
)

//go:embed templates/*.gohtml
var files embed.FS

var (
	base  = template.Must(template.New("base").Funcs(funcs).ParseFS(files, "templates/layout.gohtml", "templates/partials.gohtml"))
	pages = map[string]*template.Template{}
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006")
	},
	"datetime": func(t *time.Time) string {
		if t == nil {
			return "Never"
		}
		return t.Format("Jan 2, 2006 15:04")
	},
	"str": func(s *string) string {
		if s == nil {
			return "-"
		}
		return *s
	},
	"num": func(n *int) string {
		if n == nil {
			return "-"
		}
		return strconv.Itoa(*n)
	},
	"join": strings.Join,
	"has":  slices.Contains[[]string],
	"add":  func(a, b int) int { return a + b },
}

func init() {
	for _, name := range []string{"home", "signup", "signin", "forgot", "reset", "app", "profile", "admin", "error"} {
		t := template.Must(base.Clone())
		pages[name] = template.Must(t.ParseFS(files, "templates/"+name+".gohtml"))
	}
}

func render(page string, data any) templ.Component {
	return templ.FromGoHTML(pages[page].Lookup("layout"), data)
}

// Notice is the status banner decoded from a redirect.
type Notice struct {
	Type    string // "error" or "success"
	Message string
}

// Page carries what every page's layout needs.
type Page struct {
	Title   string
	Email   string // signed-in email; empty when anonymous
	IsAdmin bool
	Notice  Notice
}

// SignUpData feeds the registration form.
type SignUpData struct {
	Page
	Genders      []string
	Occupations  []string
	Countries    []string
	Interests    []string
	MaxInterests int
	MinAge       int
	MaxAge       int
}

// NewSignUpData fills the form options.
func NewSignUpData(p Page) SignUpData {
	return SignUpData{
		Page:         p,
		Genders:      domain.Genders,
		Occupations:  domain.Occupations,
		Countries:    domain.SuggestedCountries,
		Interests:    domain.SuggestedInterests,
		MaxInterests: domain.MaxInterests,
		MinAge:       domain.MinAge,
		MaxAge:       domain.MaxAge,
	}
}

// AppData feeds the caption screen.
type AppData struct {
	Page
	Usage *domain.UsageStats
}

// ProfileData feeds the profile page.
type ProfileData struct {
	SignUpData
	Identity *domain.Identity
	Profile  *domain.Profile
	Usage    *domain.UsageStats
}

// AdminData feeds the admin dashboard.
type AdminData struct {
	Page
	Stats *domain.AdminStats
	Table *service.AdminTable
}

// ErrorData feeds the error page.
type ErrorData struct {
	Page
	Status  int
	Heading string
	Message string
}

func HomePage(p Page) templ.Component { return render("home", p) }

func SignUpPage(d SignUpData) templ.Component { return render("signup", d) }

func SignInPage(p Page) templ.Component { return render("signin", p) }

func ForgotPasswordPage(p Page) templ.Component { return render("forgot", p) }

func ResetPasswordPage(p Page) templ.Component { return render("reset", p) }

func AppPage(d AppData) templ.Component { return render("app", d) }

func ProfilePage(d ProfileData) templ.Component { return render("profile", d) }

func AdminPage(d AdminData) templ.Component { return render("admin", d) }

// AdminTableFragment renders the element with id admin-table.
func AdminTableFragment(t *service.AdminTable) templ.Component {
	return templ.FromGoHTML(base.Lookup("admin-table"), t)
}

// ErrorPage renders a full error page.
func ErrorPage(status int, heading, message string) templ.Component {
	return render("error", ErrorData{Page: Page{Title: heading}, Status: status, Heading: heading, Message: message})
}
