package handler

import (
	"embed"
	"html/template"
	"log"
	"net/http"

	"expense_tracker/internal/api/middleware"
	"expense_tracker/internal/common/security"
	"expense_tracker/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	loginPage     = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/login.html"))
	dashboardPage = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/dashboard.html"))
)

type pageData struct {
	Title  string
	Role   model.Role
	Source string // API the page reads from
}

// PageHandler renders the minimal pages the gate redirects to.
type PageHandler struct {
	tokens *security.TokenService
}

func NewPageHandler(tokens *security.TokenService) *PageHandler {
	return &PageHandler{tokens: tokens}
}

func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/login", h.login)
	r.Get("/dashboard", h.dashboard)
	r.Get("/dashboard/user", h.rolePage(model.RoleUser, "My entries", "/api/entries"))
	r.Get("/dashboard/manager", h.rolePage(model.RoleManager, "Review entries", "/api/entries"))
	r.Get("/dashboard/manager/users", h.rolePage(model.RoleManager, "Users", "/api/users"))
}

func (h *PageHandler) login(w http.ResponseWriter, r *http.Request) {
	render(w, loginPage, pageData{Title: "Sign in"})
}

// dashboard forwards the caller to the dashboard of their role.
func (h *PageHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.Identify(h.tokens, r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Redirect(w, r, claims.Role.DashboardPath(), http.StatusFound)
}

// rolePage serves a page meant for one role; other callers are sent to their
// own dashboard.
func (h *PageHandler) rolePage(role model.Role, title, source string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.Identify(h.tokens, r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		if claims.Role != role {
			http.Redirect(w, r, claims.Role.DashboardPath(), http.StatusFound)
			return
		}
		render(w, dashboardPage, pageData{Title: title, Role: claims.Role, Source: source})
	}
}

func render(w http.ResponseWriter, t *template.Template, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		log.Printf("ERROR: render page %q: %v", data.Title, err)
	}
}
