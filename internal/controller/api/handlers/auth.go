package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/venkmine/proxx/internal/controller/api/middleware"
	"github.com/venkmine/proxx/internal/database"
)

type AuthHandler struct {
	queries   *database.Queries
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(db *pgxpool.Pool, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		queries:   database.New(db),
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
	}
}

type LoginInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" doc:"Username"`
		Password string `json:"password" minLength:"1" doc:"Password"`
	}
}

type LoginUserDTO struct {
	ID       string `json:"id" doc:"User ID"`
	Username string `json:"username" doc:"Username"`
	Role     string `json:"role" doc:"User role"`
}

type LoginDTO struct {
	Token     string       `json:"token" doc:"JWT token"`
	ExpiresIn int          `json:"expires_in" doc:"Token lifetime in seconds"`
	User      LoginUserDTO `json:"user" doc:"User info"`
}

type MeDTO struct {
	ID       string `json:"id" doc:"User ID"`
	Username string `json:"username" doc:"Username"`
	Role     string `json:"role" doc:"User role"`
	APIKey   string `json:"api_key" doc:"API key"`
}

type APIKeyDTO struct {
	APIKey string `json:"api_key" doc:"New API key"`
}

func (h *AuthHandler) Login(ctx context.Context, input *LoginInput) (*DataOutput[LoginDTO], error) {
	user, err := h.queries.GetUserByUsername(ctx, input.Body.Username)
	if err != nil {
		return nil, huma.Error401Unauthorized("invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Body.Password)); err != nil {
		return nil, huma.Error401Unauthorized("invalid username or password")
	}

	if !user.IsActive {
		return nil, huma.Error403Forbidden("account is disabled")
	}

	token, err := middleware.GenerateJWT(user.ID, user.Role, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to generate token")
	}

	return OK(LoginDTO{
		Token:     token,
		ExpiresIn: int(h.jwtExpiry.Seconds()),
		User:      LoginUserDTO{ID: user.ID, Username: user.Username, Role: user.Role},
	}), nil
}

func (h *AuthHandler) Me(ctx context.Context, _ *EmptyInput) (*DataOutput[MeDTO], error) {
	userID := middleware.GetUserID(ctx)

	user, err := h.queries.GetUserByID(ctx, userID)
	if err != nil {
		return nil, huma.Error404NotFound("user not found")
	}

	return OK(MeDTO{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		APIKey:   user.APIKey,
	}), nil
}

func (h *AuthHandler) RegenerateAPIKey(ctx context.Context, _ *EmptyInput) (*DataOutput[APIKeyDTO], error) {
	userID := middleware.GetUserID(ctx)

	user, err := h.queries.RegenerateAPIKey(ctx, userID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to regenerate API key")
	}

	return OK(APIKeyDTO{APIKey: user.APIKey}), nil
}
