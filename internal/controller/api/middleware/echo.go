package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/venkmine/proxx/internal/database"
)

// EchoAuth guards plain echo routes (SSE, web fragments) with the same
// credentials the huma API accepts: bearer token, API key, or session
// cookie. EventSource clients cannot set headers, so the query param and
// cookie paths matter here.
func EchoAuth(jwtSecret string, db *pgxpool.Pool) echo.MiddlewareFunc {
	queries := database.New(db)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()

			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				userID, role, err := parseJWT(strings.TrimPrefix(auth, "Bearer "), jwtSecret)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
				}
				setEchoUser(c, userID, role)
				return next(c)
			}

			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				apiKey = c.QueryParam("api_key")
			}
			if apiKey != "" {
				user, err := queries.GetUserByAPIKey(r.Context(), apiKey)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
				}
				if !user.IsActive {
					return echo.NewHTTPError(http.StatusForbidden, "account disabled")
				}
				setEchoUser(c, user.ID, user.Role)
				return next(c)
			}

			if cookie, err := c.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				if userID, role, err := parseJWT(cookie.Value, jwtSecret); err == nil {
					setEchoUser(c, userID, role)
					return next(c)
				}
			}

			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}
	}
}

func setEchoUser(c echo.Context, userID, role string) {
	r := c.Request()
	ctx := context.WithValue(r.Context(), UserIDKey, userID)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	c.SetRequest(r.WithContext(ctx))
}
