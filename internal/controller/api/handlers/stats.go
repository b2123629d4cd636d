package handlers

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/venkmine/proxx/internal/controller/api/middleware"
	"github.com/venkmine/proxx/internal/core/coordinator"
	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/database"
)

type StatsHandler struct {
	coord   *coordinator.Coordinator
	queries *database.Queries
}

func NewStatsHandler(coord *coordinator.Coordinator, db *pgxpool.Pool) *StatsHandler {
	return &StatsHandler{
		coord:   coord,
		queries: database.New(db),
	}
}

type QueueStats struct {
	Queued    int  `json:"queued" doc:"Specifications waiting for dispatch"`
	Running   int  `json:"running" doc:"Mirror entries currently running"`
	Paused    int  `json:"paused" doc:"Mirror entries currently paused"`
	Connected bool `json:"connected" doc:"Whether the last engine poll succeeded"`
}

type AdminStats struct {
	TotalUsers   int64 `json:"total_users"`
	ArchivedJobs int64 `json:"archived_jobs"`
}

type StatsDTO struct {
	Queue QueueStats  `json:"queue"`
	Admin *AdminStats `json:"admin,omitempty"`
}

func (h *StatsHandler) Get(ctx context.Context, _ *EmptyInput) (*DataOutput[StatsDTO], error) {
	view := h.coord.View()

	stats := QueueStats{
		Queued:    view.QueueLength,
		Connected: view.Connected,
	}
	for _, jv := range view.Jobs {
		switch jv.Status {
		case engine.StateRunning:
			stats.Running++
		case engine.StatePaused:
			stats.Paused++
		}
	}

	dto := StatsDTO{Queue: stats}

	if middleware.GetUserRole(ctx) == "admin" {
		totalUsers, _ := h.queries.GetUserCount(ctx)
		archived, _ := h.queries.CountArchivedJobs(ctx)
		dto.Admin = &AdminStats{
			TotalUsers:   totalUsers,
			ArchivedJobs: archived,
		}
	}

	return OK(dto), nil
}
