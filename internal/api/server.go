// Package api is the HTTP request layer: it maps routes onto hunt.Service
// operations and authenticates callers against the user store.
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/roach88/cube/internal/hunt"
	"github.com/roach88/cube/internal/model"
	"github.com/roach88/cube/internal/store"
	"github.com/roach88/cube/internal/validator"
)

// BuildEcho creates the echo instance with validation, request logging,
// panic recovery and the JSON error handler installed.
func BuildEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Validator = validator.Create()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		slogecho.NewWithConfig(logger, slogecho.Config{
			DefaultLevel:     slog.LevelInfo,
			ClientErrorLevel: slog.LevelWarn,
			ServerErrorLevel: slog.LevelError,
		}),
		middleware.Recover(),
	)

	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	return e
}

// Handler serves the hunt routes.
type Handler struct {
	svc   *hunt.Service
	users *store.UserStore
}

func NewHandler(svc *hunt.Service, users *store.UserStore) *Handler {
	return &Handler{svc: svc, users: users}
}

// AddRoutes registers every hunt route. All of them except /health require
// basic auth.
func (h *Handler) AddRoutes(e *echo.Echo) {
	e.Use(middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Skipper:   func(c echo.Context) bool { return c.Path() == "/health" },
		Validator: h.BasicAuthValidator,
	}))

	admin := RequireRole(model.RoleAdmin)
	grader := RequireRole(model.RoleAdmin, model.RoleWritingTeam)

	e.GET("/submissions", h.ListSubmissions)
	e.POST("/submissions", h.CreateSubmission)
	e.GET("/submissions/:id", h.GetSubmission)
	e.POST("/submissions/:id", h.UpdateSubmission, grader)

	e.GET("/visibilities", h.ListVisibilities)
	e.GET("/visibilities/:teamId/:puzzleId", h.GetVisibility)
	e.POST("/visibilities/:teamId/:puzzleId", h.SetVisibility, admin)
	e.GET("/visibilitychanges", h.ListVisibilityChanges)

	e.POST("/events", h.PostEvent, admin)

	e.GET("/teams", h.ListTeams)
	e.GET("/teams/:id", h.GetTeam)
	e.GET("/users/:id", h.GetUser)
}
