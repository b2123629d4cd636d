package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/venkmine/proxx/internal/database"
)

type UsersHandler struct {
	queries *database.Queries
}

func NewUsersHandler(db *pgxpool.Pool) *UsersHandler {
	return &UsersHandler{queries: database.New(db)}
}

type UserDTO struct {
	ID        string `json:"id" doc:"User ID"`
	Username  string `json:"username" doc:"Username"`
	Role      string `json:"role" doc:"User role"`
	IsActive  bool   `json:"is_active" doc:"Whether the account can log in"`
	CreatedAt string `json:"created_at" doc:"Creation time (RFC 3339)"`
}

func userDTO(u database.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

type ListUsersInput struct {
	Limit  int `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset"`
}

func (h *UsersHandler) List(ctx context.Context, input *ListUsersInput) (*DataOutput[[]UserDTO], error) {
	users, err := h.queries.ListUsers(ctx, database.ListUsersParams{
		Limit:  int32(input.Limit),
		Offset: int32(input.Offset),
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list users")
	}

	result := make([]UserDTO, len(users))
	for i, u := range users {
		result[i] = userDTO(u)
	}
	return OK(result), nil
}

type CreateUserInput struct {
	Body struct {
		Username string `json:"username" minLength:"1" doc:"Username"`
		Password string `json:"password" minLength:"8" doc:"Password"`
		Role     string `json:"role" enum:"operator,admin" default:"operator" doc:"Role"`
	}
}

func (h *UsersHandler) Create(ctx context.Context, input *CreateUserInput) (*DataOutput[UserDTO], error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Body.Password), 12)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to hash password")
	}

	role := input.Body.Role
	if role == "" {
		role = "operator"
	}

	user, err := h.queries.CreateUser(ctx, database.CreateUserParams{
		Username: input.Body.Username,
		Password: string(hash),
		Role:     role,
	})
	if err != nil {
		return nil, huma.Error409Conflict("username already taken")
	}

	return OK(userDTO(user)), nil
}

type UserIDInput struct {
	ID string `path:"id" doc:"User ID"`
}

func (h *UsersHandler) Delete(ctx context.Context, input *UserIDInput) (*MsgOutput, error) {
	if err := h.queries.DeleteUser(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete user")
	}
	return Msg("user deleted"), nil
}
