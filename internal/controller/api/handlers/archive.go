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

type ArchiveHandler struct {
	queries *database.Queries
}

func NewArchiveHandler(db *pgxpool.Pool) *ArchiveHandler {
	return &ArchiveHandler{queries: database.New(db)}
}

type ArchivedJobDTO struct {
	JobID       string     `json:"job_id" doc:"Engine job id"`
	Name        string     `json:"name" doc:"Display name"`
	Status      string     `json:"status" doc:"Terminal status the job was archived with"`
	TasksTotal  int        `json:"tasks_total" doc:"Total tasks"`
	TasksDone   int        `json:"tasks_done" doc:"Finished tasks"`
	TasksFailed int        `json:"tasks_failed" doc:"Failed tasks"`
	Error       string     `json:"error,omitempty" doc:"Engine-reported error"`
	CreatedAt   *time.Time `json:"created_at,omitempty" doc:"Engine creation time"`
	StartedAt   *time.Time `json:"started_at,omitempty" doc:"Engine start time"`
	EndedAt     *time.Time `json:"ended_at,omitempty" doc:"Engine end time"`
	ArchivedAt  time.Time  `json:"archived_at" doc:"When the terminal status was first absorbed"`
}

func archivedJobDTO(j database.ArchivedJob) ArchivedJobDTO {
	return ArchivedJobDTO{
		JobID:       j.JobID,
		Name:        j.Name,
		Status:      j.Status,
		TasksTotal:  j.TasksTotal,
		TasksDone:   j.TasksDone,
		TasksFailed: j.TasksFailed,
		Error:       j.Error,
		CreatedAt:   j.CreatedAt,
		StartedAt:   j.StartedAt,
		EndedAt:     j.EndedAt,
		ArchivedAt:  j.ArchivedAt,
	}
}

type ListArchiveInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200" doc:"Max results"`
	Offset int `query:"offset" default:"0" minimum:"0" doc:"Offset"`
}

func (h *ArchiveHandler) List(ctx context.Context, input *ListArchiveInput) (*DataOutput[[]ArchivedJobDTO], error) {
	jobs, err := h.queries.ListArchivedJobs(ctx, database.ListArchivedJobsParams{
		Limit:  int32(input.Limit),
		Offset: int32(input.Offset),
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list archive")
	}

	result := make([]ArchivedJobDTO, len(jobs))
	for i, j := range jobs {
		result[i] = archivedJobDTO(j)
	}
	return OK(result), nil
}

func (h *ArchiveHandler) Get(ctx context.Context, input *JobIDInput) (*DataOutput[ArchivedJobDTO], error) {
	job, err := h.queries.GetArchivedJob(ctx, input.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, huma.Error404NotFound("archived job not found")
		}
		return nil, huma.Error500InternalServerError("failed to load archived job")
	}
	return OK(archivedJobDTO(job)), nil
}
