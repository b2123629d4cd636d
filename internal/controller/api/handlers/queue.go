package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venkmine/proxx/internal/core/coordinator"
	"github.com/venkmine/proxx/internal/core/jobspec"
	"github.com/venkmine/proxx/internal/database"
)

type QueueHandler struct {
	coord   *coordinator.Coordinator
	queries *database.Queries
}

func NewQueueHandler(coord *coordinator.Coordinator, db *pgxpool.Pool) *QueueHandler {
	return &QueueHandler{
		coord:   coord,
		queries: database.New(db),
	}
}

// SubmitInput either spells out the full encode settings or names a preset
// and overrides individual fields.
type SubmitInput struct {
	Body struct {
		Name           string   `json:"name,omitempty" doc:"Display name; defaults to the first source's basename"`
		SourcePaths    []string `json:"source_paths" minItems:"1" doc:"Absolute source file paths"`
		OutputDir      string   `json:"output_dir,omitempty" doc:"Absolute output directory"`
		Codec          string   `json:"codec,omitempty" doc:"Target codec"`
		Container      string   `json:"container,omitempty" doc:"Target container"`
		NamingTemplate string   `json:"naming_template,omitempty" doc:"Output naming template"`
		Delivery       string   `json:"delivery,omitempty" doc:"Delivery profile (editorial, review, archive)"`
		PresetID       string   `json:"preset_id,omitempty" doc:"Preset supplying defaults for unset fields"`
	}
}

type SubmitDTO struct {
	SpecID    string `json:"spec_id" doc:"Local specification id (replaced by the engine id on dispatch)"`
	Name      string `json:"name" doc:"Display name"`
	Delivery  string `json:"delivery" doc:"Delivery profile"`
	QueueSize int    `json:"queue_size" doc:"Queue length after this submission"`
}

func (h *QueueHandler) Submit(ctx context.Context, input *SubmitInput) (*DataOutput[SubmitDTO], error) {
	in := jobspec.Input{
		Name:           input.Body.Name,
		SourcePaths:    input.Body.SourcePaths,
		OutputDir:      input.Body.OutputDir,
		Codec:          input.Body.Codec,
		Container:      input.Body.Container,
		NamingTemplate: input.Body.NamingTemplate,
		Delivery:       jobspec.Delivery(input.Body.Delivery),
	}

	if input.Body.PresetID != "" {
		preset, err := h.queries.GetPreset(ctx, input.Body.PresetID)
		if err != nil {
			return nil, huma.Error404NotFound("preset not found")
		}
		applyPresetDefaults(&in, preset)
	}

	spec, err := h.coord.Submit(ctx, in)
	if err != nil {
		var verr *jobspec.ValidationError
		if errors.As(err, &verr) {
			return nil, huma.Error422UnprocessableEntity(verr.Error())
		}
		return nil, huma.Error500InternalServerError(err.Error())
	}

	return OK(SubmitDTO{
		SpecID:    spec.ID,
		Name:      spec.Name,
		Delivery:  string(spec.Delivery),
		QueueSize: h.coord.View().QueueLength,
	}), nil
}

// applyPresetDefaults fills fields the request left empty. Explicit request
// values always win over the preset.
func applyPresetDefaults(in *jobspec.Input, preset database.Preset) {
	if in.OutputDir == "" {
		in.OutputDir = preset.OutputDir
	}
	if in.Codec == "" {
		in.Codec = preset.Codec
	}
	if in.Container == "" {
		in.Container = preset.Container
	}
	if in.NamingTemplate == "" {
		in.NamingTemplate = preset.NamingTemplate
	}
	if in.Delivery == "" {
		in.Delivery = jobspec.Delivery(preset.Delivery)
	}
}

type QueueDTO struct {
	Jobs        []coordinator.JobView `json:"jobs" doc:"Queued rows in execution order"`
	QueueLength int                   `json:"queue_length" doc:"Number of queued specifications"`
}

func (h *QueueHandler) Get(ctx context.Context, _ *EmptyInput) (*DataOutput[QueueDTO], error) {
	view := h.coord.View()

	queued := make([]coordinator.JobView, 0, view.QueueLength)
	for _, jv := range view.Jobs {
		if jv.Queued {
			queued = append(queued, jv)
		}
	}

	return OK(QueueDTO{Jobs: queued, QueueLength: view.QueueLength}), nil
}
