package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/venkmine/proxx/internal/core/engine"
)

// EngineHandler relays engine facts the controller does not interpret:
// version, capability lists, health. Capability detection lives in the
// engine; this is passthrough only.
type EngineHandler struct {
	client engine.Client
}

func NewEngineHandler(client engine.Client) *EngineHandler {
	return &EngineHandler{client: client}
}

type EngineDTO struct {
	Version      string              `json:"version" doc:"Engine version string"`
	Capabilities engine.Capabilities `json:"capabilities" doc:"Engine-reported capabilities"`
	Healthy      bool                `json:"healthy" doc:"Whether the engine answered the health probe"`
	Message      string              `json:"message,omitempty" doc:"Health probe detail"`
}

func (h *EngineHandler) Get(ctx context.Context, _ *EmptyInput) (*DataOutput[EngineDTO], error) {
	health := h.client.Health(ctx)
	if !health.OK {
		return OK(EngineDTO{Healthy: false, Message: health.Message}), nil
	}

	version, err := h.client.Version(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway(err.Error())
	}

	caps, err := h.client.Capabilities(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway(err.Error())
	}

	return OK(EngineDTO{
		Version:      version,
		Capabilities: caps,
		Healthy:      true,
	}), nil
}
