package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/venkmine/proxx/internal/core/coordinator"
)

type JobsHandler struct {
	coord *coordinator.Coordinator
}

func NewJobsHandler(coord *coordinator.Coordinator) *JobsHandler {
	return &JobsHandler{coord: coord}
}

// ViewDTO is the merged presentation snapshot: queued rows first in
// execution order, then engine-mirrored rows newest first.
type ViewDTO struct {
	Jobs        []coordinator.JobView  `json:"jobs" doc:"Merged job rows"`
	QueueLength int                    `json:"queue_length" doc:"Queued specifications"`
	Connected   bool                   `json:"connected" doc:"Whether the last engine poll succeeded"`
	Dispatching bool                   `json:"dispatching" doc:"Whether a dispatch is in flight"`
	LastError   *coordinator.LastError `json:"last_error,omitempty" doc:"Persistent error banner, until dismissed"`
}

func (h *JobsHandler) List(ctx context.Context, _ *EmptyInput) (*DataOutput[ViewDTO], error) {
	view := h.coord.View()
	return OK(ViewDTO{
		Jobs:        view.Jobs,
		QueueLength: view.QueueLength,
		Connected:   view.Connected,
		Dispatching: view.Dispatching,
		LastError:   view.LastError,
	}), nil
}

type JobIDInput struct {
	ID string `path:"id" doc:"Engine job id, or local spec id while queued"`
}

func (h *JobsHandler) Get(ctx context.Context, input *JobIDInput) (*DataOutput[coordinator.JobView], error) {
	jv, ok := h.coord.Job(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("job not found")
	}
	return OK(jv), nil
}

func (h *JobsHandler) Start(ctx context.Context, input *JobIDInput) (*MsgOutput, error) {
	return commandResult("start", h.coord.StartJob(ctx, input.ID))
}

func (h *JobsHandler) Pause(ctx context.Context, input *JobIDInput) (*MsgOutput, error) {
	return commandResult("pause", h.coord.PauseJob(ctx, input.ID))
}

func (h *JobsHandler) Resume(ctx context.Context, input *JobIDInput) (*MsgOutput, error) {
	return commandResult("resume", h.coord.ResumeJob(ctx, input.ID))
}

func (h *JobsHandler) Cancel(ctx context.Context, input *JobIDInput) (*MsgOutput, error) {
	return commandResult("cancel", h.coord.CancelJob(ctx, input.ID))
}

func (h *JobsHandler) Delete(ctx context.Context, input *JobIDInput) (*MsgOutput, error) {
	return commandResult("delete", h.coord.DeleteJob(ctx, input.ID))
}

// commandResult maps coordinator command outcomes onto HTTP statuses. A nil
// error covers both an accepted command and a silently dropped duplicate;
// the caller cannot tell them apart, which is the point.
func commandResult(op string, err error) (*MsgOutput, error) {
	if err == nil {
		return Msg(op + " accepted"), nil
	}
	if errors.Is(err, coordinator.ErrStillQueued) {
		return nil, huma.Error409Conflict("job is still queued; it has no engine id to command yet")
	}
	if errors.Is(err, coordinator.ErrUnknownJob) {
		return nil, huma.Error404NotFound("job not found")
	}
	return nil, huma.Error502BadGateway(err.Error())
}

func (h *JobsHandler) DismissError(ctx context.Context, _ *EmptyInput) (*MsgOutput, error) {
	h.coord.DismissError()
	return Msg("error dismissed"), nil
}
