package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venkmine/proxx/internal/database"
)

// SettingsHandler exposes the controller's stored settings read-only.
// Secret-bearing values are masked; settings are written by the controller
// itself at startup, not through the API.
type SettingsHandler struct {
	queries *database.Queries
}

func NewSettingsHandler(db *pgxpool.Pool) *SettingsHandler {
	return &SettingsHandler{queries: database.New(db)}
}

type SettingDTO struct {
	Key         string    `json:"key" doc:"Setting key"`
	Value       string    `json:"value" doc:"Setting value; secrets are masked"`
	Description string    `json:"description,omitempty" doc:"What the setting is for"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last write time"`
}

func settingDTO(s database.Setting) SettingDTO {
	dto := SettingDTO{
		Key:         s.Key,
		Value:       s.Value,
		Description: s.Description,
		UpdatedAt:   s.UpdatedAt,
	}
	if isSecretSetting(s.Key) {
		dto.Value = "********"
	}
	return dto
}

func isSecretSetting(key string) bool {
	switch key {
	case "jwt_secret":
		return true
	}
	return false
}

func (h *SettingsHandler) List(ctx context.Context, _ *EmptyInput) (*DataOutput[[]SettingDTO], error) {
	settings, err := h.queries.ListSettings(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list settings")
	}

	result := make([]SettingDTO, len(settings))
	for i, s := range settings {
		result[i] = settingDTO(s)
	}
	return OK(result), nil
}

type SettingKeyInput struct {
	Key string `path:"key" doc:"Setting key"`
}

func (h *SettingsHandler) Get(ctx context.Context, input *SettingKeyInput) (*DataOutput[SettingDTO], error) {
	setting, err := h.queries.GetSetting(ctx, input.Key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huma.Error404NotFound("setting not found")
		}
		return nil, huma.Error500InternalServerError("failed to load setting")
	}
	return OK(settingDTO(setting)), nil
}
