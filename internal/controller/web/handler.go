package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/venkmine/proxx/internal/controller/api/middleware"
	"github.com/venkmine/proxx/internal/core/coordinator"
	"github.com/venkmine/proxx/internal/database"
)

//go:embed templates
var templateFS embed.FS

// Handler serves the operator dashboard: full pages from the embedded
// template and HTMX fragments rendered straight from the coordinator's
// merged view, so the page never talks to the engine directly.
type Handler struct {
	templates *template.Template
	coord     *coordinator.Coordinator
	queries   *database.Queries
	db        *pgxpool.Pool
	jwtSecret string
}

func NewHandler(db *pgxpool.Pool, coord *coordinator.Coordinator, jwtSecret string) *Handler {
	tmpl := template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))

	return &Handler{
		templates: tmpl,
		coord:     coord,
		queries:   database.New(db),
		db:        db,
		jwtSecret: jwtSecret,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Page routes (serve full HTML pages)
	e.GET("/web", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/web/")
	})
	e.GET("/web/", h.dashboardPage)
	e.GET("/web/login", h.loginPage)
	e.GET("/web/archive", h.archivePage)
	e.GET("/web/presets", h.presetsPage)

	// HTMX API routes (return HTML fragments). HTMX sends the session cookie
	// with every request, so the cookie path of the auth chain covers these.
	api := e.Group("/web/api", middleware.EchoAuth(h.jwtSecret, h.db))
	api.GET("/jobs", h.jobsFragment)
	api.GET("/stats", h.statsFragment)
	api.GET("/error", h.errorFragment)
	api.GET("/archive", h.archiveFragment)
	api.GET("/presets", h.presetsFragment)
}

type pageData struct {
	Title string
	Page  string
}

func (h *Handler) render(c echo.Context, data pageData) error {
	c.Response().Header().Set("Content-Type", "text/html")
	return h.templates.ExecuteTemplate(c.Response(), "base.html", data)
}

func (h *Handler) loginPage(c echo.Context) error {
	return h.render(c, pageData{Title: "Login", Page: "login"})
}

func (h *Handler) dashboardPage(c echo.Context) error {
	return h.render(c, pageData{Title: "Dashboard", Page: "dashboard"})
}

func (h *Handler) archivePage(c echo.Context) error {
	return h.render(c, pageData{Title: "Archive", Page: "archive"})
}

func (h *Handler) presetsPage(c echo.Context) error {
	return h.render(c, pageData{Title: "Presets", Page: "presets"})
}
