package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/venkmine/proxx/internal/controller/api/handlers"
	"github.com/venkmine/proxx/internal/controller/api/middleware"
	"github.com/venkmine/proxx/internal/core/coordinator"
	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/event"
)

type RouterConfig struct {
	DB        *pgxpool.Pool
	JWTSecret string
	JWTExpiry time.Duration
	Coord     *coordinator.Coordinator
	Engine    engine.Client
	Bus       event.Bus
}

func SetupRouter(e *echo.Echo, cfg RouterConfig) {
	handlers.InitErrors()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
	}))
	e.Use(echomw.RateLimiter(echomw.NewRateLimiterMemoryStore(20)))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// SSE is echo-native: EventSource cannot set headers, so it
	// authenticates via cookie or api_key query param.
	e.GET("/api/v1/events", SSEHandler(cfg.Bus), middleware.EchoAuth(cfg.JWTSecret, cfg.DB))

	v1 := e.Group("/api/v1")
	config := huma.DefaultConfig("Proxx API", "1.0.0")
	config.Servers = []*huma.Server{{URL: "/api/v1"}}
	config.Info.Description = "Self-hosted encode-queue controller for a renderd engine"
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"BearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
			Description:  "JWT Bearer token",
		},
		"ApiKeyAuth": {
			Type:        "apiKey",
			In:          "header",
			Name:        "X-API-Key",
			Description: "API key",
		},
	}

	api := humaecho.NewWithGroup(e, v1, config)

	authMw := middleware.Auth(cfg.JWTSecret, cfg.DB)
	adminMw := middleware.AdminOnly()
	secured := []map[string][]string{{"BearerAuth": {}}, {"ApiKeyAuth": {}}}

	authHandler := handlers.NewAuthHandler(cfg.DB, cfg.JWTSecret, cfg.JWTExpiry)
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Login and get JWT token",
		Tags:        []string{"Auth"},
	}, authHandler.Login)

	huma.Register(api, huma.Operation{
		OperationID: "get-me",
		Method:      http.MethodGet,
		Path:        "/auth/me",
		Summary:     "Get current user info",
		Tags:        []string{"Auth"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, authHandler.Me)

	huma.Register(api, huma.Operation{
		OperationID: "regenerate-api-key",
		Method:      http.MethodPost,
		Path:        "/auth/apikey/regenerate",
		Summary:     "Regenerate API key",
		Tags:        []string{"Auth"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, authHandler.RegenerateAPIKey)

	queueHandler := handlers.NewQueueHandler(cfg.Coord, cfg.DB)
	huma.Register(api, huma.Operation{
		OperationID:   "queue-submit",
		Method:        http.MethodPost,
		Path:          "/queue",
		Summary:       "Compile a job specification and append it to the queue",
		Tags:          []string{"Queue"},
		Security:      secured,
		Middlewares:   huma.Middlewares{authMw},
		DefaultStatus: http.StatusCreated,
	}, queueHandler.Submit)

	huma.Register(api, huma.Operation{
		OperationID: "queue-get",
		Method:      http.MethodGet,
		Path:        "/queue",
		Summary:     "List queued specifications in execution order",
		Tags:        []string{"Queue"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, queueHandler.Get)

	jobsHandler := handlers.NewJobsHandler(cfg.Coord)
	huma.Register(api, huma.Operation{
		OperationID: "jobs-list",
		Method:      http.MethodGet,
		Path:        "/jobs",
		Summary:     "Get the merged job view",
		Tags:        []string{"Jobs"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, jobsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "jobs-get",
		Method:      http.MethodGet,
		Path:        "/jobs/{id}",
		Summary:     "Get one job row",
		Tags:        []string{"Jobs"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, jobsHandler.Get)

	registerCommand := func(opID, verb, path, summary string, handler func(context.Context, *handlers.JobIDInput) (*handlers.MsgOutput, error)) {
		huma.Register(api, huma.Operation{
			OperationID:   opID,
			Method:        verb,
			Path:          path,
			Summary:       summary,
			Tags:          []string{"Jobs"},
			Security:      secured,
			Middlewares:   huma.Middlewares{authMw},
			DefaultStatus: http.StatusAccepted,
		}, handler)
	}
	registerCommand("jobs-start", http.MethodPost, "/jobs/{id}/start", "Start a paused or pending engine job", jobsHandler.Start)
	registerCommand("jobs-pause", http.MethodPost, "/jobs/{id}/pause", "Pause a running engine job", jobsHandler.Pause)
	registerCommand("jobs-resume", http.MethodPost, "/jobs/{id}/resume", "Resume a paused engine job", jobsHandler.Resume)
	registerCommand("jobs-cancel", http.MethodPost, "/jobs/{id}/cancel", "Cancel an engine job", jobsHandler.Cancel)
	registerCommand("jobs-delete", http.MethodDelete, "/jobs/{id}", "Delete an engine job", jobsHandler.Delete)

	huma.Register(api, huma.Operation{
		OperationID: "errors-dismiss",
		Method:      http.MethodPost,
		Path:        "/errors/dismiss",
		Summary:     "Dismiss the persistent error banner",
		Tags:        []string{"Jobs"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, jobsHandler.DismissError)

	presetsHandler := handlers.NewPresetsHandler(cfg.DB)
	huma.Register(api, huma.Operation{
		OperationID: "presets-list",
		Method:      http.MethodGet,
		Path:        "/presets",
		Summary:     "List presets",
		Tags:        []string{"Presets"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, presetsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID:   "presets-create",
		Method:        http.MethodPost,
		Path:          "/presets",
		Summary:       "Create a preset",
		Tags:          []string{"Presets"},
		Security:      secured,
		Middlewares:   huma.Middlewares{authMw},
		DefaultStatus: http.StatusCreated,
	}, presetsHandler.Create)

	huma.Register(api, huma.Operation{
		OperationID: "presets-get",
		Method:      http.MethodGet,
		Path:        "/presets/{id}",
		Summary:     "Get a preset",
		Tags:        []string{"Presets"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, presetsHandler.Get)

	huma.Register(api, huma.Operation{
		OperationID: "presets-update",
		Method:      http.MethodPut,
		Path:        "/presets/{id}",
		Summary:     "Update a preset",
		Tags:        []string{"Presets"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, presetsHandler.Update)

	huma.Register(api, huma.Operation{
		OperationID: "presets-delete",
		Method:      http.MethodDelete,
		Path:        "/presets/{id}",
		Summary:     "Delete a preset",
		Tags:        []string{"Presets"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, presetsHandler.Delete)

	archiveHandler := handlers.NewArchiveHandler(cfg.DB)
	huma.Register(api, huma.Operation{
		OperationID: "archive-list",
		Method:      http.MethodGet,
		Path:        "/archive",
		Summary:     "List archived terminal jobs",
		Tags:        []string{"Archive"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, archiveHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "archive-get",
		Method:      http.MethodGet,
		Path:        "/archive/{id}",
		Summary:     "Get one archived job",
		Tags:        []string{"Archive"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, archiveHandler.Get)

	engineHandler := handlers.NewEngineHandler(cfg.Engine)
	huma.Register(api, huma.Operation{
		OperationID: "engine-get",
		Method:      http.MethodGet,
		Path:        "/engine",
		Summary:     "Get engine version and capabilities",
		Tags:        []string{"Engine"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, engineHandler.Get)

	statsHandler := handlers.NewStatsHandler(cfg.Coord, cfg.DB)
	huma.Register(api, huma.Operation{
		OperationID: "stats-get",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Get queue and archive statistics",
		Tags:        []string{"Stats"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw},
	}, statsHandler.Get)

	usersHandler := handlers.NewUsersHandler(cfg.DB)
	huma.Register(api, huma.Operation{
		OperationID: "admin-users-list",
		Method:      http.MethodGet,
		Path:        "/admin/users",
		Summary:     "List all users",
		Tags:        []string{"Admin - Users"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw, adminMw},
	}, usersHandler.List)

	huma.Register(api, huma.Operation{
		OperationID:   "admin-users-create",
		Method:        http.MethodPost,
		Path:          "/admin/users",
		Summary:       "Create a user",
		Tags:          []string{"Admin - Users"},
		Security:      secured,
		Middlewares:   huma.Middlewares{authMw, adminMw},
		DefaultStatus: http.StatusCreated,
	}, usersHandler.Create)

	huma.Register(api, huma.Operation{
		OperationID: "admin-users-delete",
		Method:      http.MethodDelete,
		Path:        "/admin/users/{id}",
		Summary:     "Delete a user",
		Tags:        []string{"Admin - Users"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw, adminMw},
	}, usersHandler.Delete)

	settingsHandler := handlers.NewSettingsHandler(cfg.DB)
	huma.Register(api, huma.Operation{
		OperationID: "admin-settings-list",
		Method:      http.MethodGet,
		Path:        "/admin/settings",
		Summary:     "List stored settings",
		Tags:        []string{"Admin - Settings"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw, adminMw},
	}, settingsHandler.List)

	huma.Register(api, huma.Operation{
		OperationID: "admin-settings-get",
		Method:      http.MethodGet,
		Path:        "/admin/settings/{key}",
		Summary:     "Get a setting",
		Tags:        []string{"Admin - Settings"},
		Security:    secured,
		Middlewares: huma.Middlewares{authMw, adminMw},
	}, settingsHandler.Get)
}
