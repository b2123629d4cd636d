package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venkmine/proxx/internal/core/jobspec"
	"github.com/venkmine/proxx/internal/database"
)

type PresetsHandler struct {
	queries *database.Queries
}

func NewPresetsHandler(db *pgxpool.Pool) *PresetsHandler {
	return &PresetsHandler{queries: database.New(db)}
}

type PresetDTO struct {
	ID             string `json:"id" doc:"Preset ID"`
	Name           string `json:"name" doc:"Preset name"`
	Codec          string `json:"codec" doc:"Target codec"`
	Container      string `json:"container" doc:"Target container"`
	NamingTemplate string `json:"naming_template" doc:"Output naming template"`
	Delivery       string `json:"delivery" doc:"Delivery profile"`
	OutputDir      string `json:"output_dir" doc:"Default output directory"`
}

func presetDTO(p database.Preset) PresetDTO {
	return PresetDTO{
		ID:             p.ID,
		Name:           p.Name,
		Codec:          p.Codec,
		Container:      p.Container,
		NamingTemplate: p.NamingTemplate,
		Delivery:       p.Delivery,
		OutputDir:      p.OutputDir,
	}
}

type PresetBody struct {
	Name           string `json:"name" minLength:"1" doc:"Preset name"`
	Codec          string `json:"codec" minLength:"1" doc:"Target codec"`
	Container      string `json:"container" minLength:"1" doc:"Target container"`
	NamingTemplate string `json:"naming_template,omitempty" doc:"Output naming template"`
	Delivery       string `json:"delivery" enum:"editorial,review,archive" doc:"Delivery profile"`
	OutputDir      string `json:"output_dir" minLength:"1" doc:"Default output directory"`
}

type CreatePresetInput struct {
	Body PresetBody
}

func (h *PresetsHandler) Create(ctx context.Context, input *CreatePresetInput) (*DataOutput[PresetDTO], error) {
	if !jobspec.Delivery(input.Body.Delivery).Valid() {
		return nil, huma.Error422UnprocessableEntity("unknown delivery profile")
	}

	preset, err := h.queries.CreatePreset(ctx, database.CreatePresetParams{
		Name:           input.Body.Name,
		Codec:          input.Body.Codec,
		Container:      input.Body.Container,
		NamingTemplate: input.Body.NamingTemplate,
		Delivery:       input.Body.Delivery,
		OutputDir:      input.Body.OutputDir,
	})
	if err != nil {
		return nil, huma.Error409Conflict("preset name already taken")
	}

	return OK(presetDTO(preset)), nil
}

func (h *PresetsHandler) List(ctx context.Context, _ *EmptyInput) (*DataOutput[[]PresetDTO], error) {
	presets, err := h.queries.ListPresets(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list presets")
	}

	result := make([]PresetDTO, len(presets))
	for i, p := range presets {
		result[i] = presetDTO(p)
	}
	return OK(result), nil
}

type PresetIDInput struct {
	ID string `path:"id" doc:"Preset ID"`
}

func (h *PresetsHandler) Get(ctx context.Context, input *PresetIDInput) (*DataOutput[PresetDTO], error) {
	preset, err := h.queries.GetPreset(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huma.Error404NotFound("preset not found")
		}
		return nil, huma.Error500InternalServerError("failed to load preset")
	}
	return OK(presetDTO(preset)), nil
}

type UpdatePresetInput struct {
	ID   string `path:"id" doc:"Preset ID"`
	Body PresetBody
}

func (h *PresetsHandler) Update(ctx context.Context, input *UpdatePresetInput) (*DataOutput[PresetDTO], error) {
	if !jobspec.Delivery(input.Body.Delivery).Valid() {
		return nil, huma.Error422UnprocessableEntity("unknown delivery profile")
	}

	preset, err := h.queries.UpdatePreset(ctx, database.UpdatePresetParams{
		ID:             input.ID,
		Name:           input.Body.Name,
		Codec:          input.Body.Codec,
		Container:      input.Body.Container,
		NamingTemplate: input.Body.NamingTemplate,
		Delivery:       input.Body.Delivery,
		OutputDir:      input.Body.OutputDir,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huma.Error404NotFound("preset not found")
		}
		return nil, huma.Error500InternalServerError("failed to update preset")
	}
	return OK(presetDTO(preset)), nil
}

func (h *PresetsHandler) Delete(ctx context.Context, input *PresetIDInput) (*MsgOutput, error) {
	if err := h.queries.DeletePreset(ctx, input.ID); err != nil {
		return nil, huma.Error500InternalServerError("failed to delete preset")
	}
	return Msg("preset deleted"), nil
}
