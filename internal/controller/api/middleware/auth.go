package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/venkmine/proxx/internal/database"
)

// SessionCookie is the cookie the web dashboard stores its JWT in.
const SessionCookie = "proxx_session"

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(UserIDKey).(string)
	return v
}

func GetUserRole(ctx context.Context) string {
	v, _ := ctx.Value(UserRoleKey).(string)
	return v
}

// GenerateJWT signs an HS256 token carrying the user id and role.
func GenerateJWT(userID, role, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(expiry).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// Auth accepts a JWT bearer token, an API key (X-API-Key header or api_key
// query param), or the session cookie, in that order.
func Auth(jwtSecret string, db *pgxpool.Pool) func(ctx huma.Context, next func(huma.Context)) {
	queries := database.New(db)

	return func(ctx huma.Context, next func(huma.Context)) {
		echoCtx := humaecho.Unwrap(ctx)
		auth := ctx.Header("Authorization")

		setCtx := func(userID, role string) {
			r := echoCtx.Request()
			newCtx := context.WithValue(r.Context(), UserIDKey, userID)
			newCtx = context.WithValue(newCtx, UserRoleKey, role)
			echoCtx.SetRequest(r.WithContext(newCtx))
		}

		if strings.HasPrefix(auth, "Bearer ") {
			tokenStr := strings.TrimPrefix(auth, "Bearer ")
			userID, role, err := parseJWT(tokenStr, jwtSecret)
			if err != nil {
				writeUnauthorized(ctx, "invalid token")
				return
			}
			setCtx(userID, role)
			next(ctx)
			return
		}

		apiKey := ctx.Header("X-API-Key")
		if apiKey == "" {
			apiKey = ctx.Query("api_key")
		}
		if apiKey != "" {
			user, err := queries.GetUserByAPIKey(echoCtx.Request().Context(), apiKey)
			if err != nil {
				writeUnauthorized(ctx, "invalid api key")
				return
			}
			if !user.IsActive {
				writeForbidden(ctx, "account disabled")
				return
			}
			setCtx(user.ID, user.Role)
			next(ctx)
			return
		}

		cookie, err := echoCtx.Cookie(SessionCookie)
		if err == nil && cookie.Value != "" {
			userID, role, err := parseJWT(cookie.Value, jwtSecret)
			if err == nil {
				setCtx(userID, role)
				next(ctx)
				return
			}
		}

		log.Debug().Str("path", ctx.URL().Path).Msg("authentication failed, no valid credentials")
		writeUnauthorized(ctx, "authentication required")
	}
}

// AdminOnly layers on top of Auth and rejects non-admin roles.
func AdminOnly() func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		echoCtx := humaecho.Unwrap(ctx)
		role := GetUserRole(echoCtx.Request().Context())
		if role != "admin" {
			writeForbidden(ctx, "admin access required")
			return
		}
		next(ctx)
	}
}

func parseJWT(tokenStr, secret string) (userID, role string, err error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", jwt.ErrTokenUnverifiable
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	userID, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	return userID, role, nil
}

func writeUnauthorized(ctx huma.Context, msg string) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(huma.ErrorModel{
		Title:  http.StatusText(http.StatusUnauthorized),
		Status: http.StatusUnauthorized,
		Detail: msg,
	})
}

func writeForbidden(ctx huma.Context, msg string) {
	ctx.SetStatus(http.StatusForbidden)
	ctx.SetHeader("Content-Type", "application/json")
	_ = json.NewEncoder(ctx.BodyWriter()).Encode(huma.ErrorModel{
		Title:  http.StatusText(http.StatusForbidden),
		Status: http.StatusForbidden,
		Detail: msg,
	})
}
