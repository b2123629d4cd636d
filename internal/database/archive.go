package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/venkmine/proxx/internal/core/event"
)

// Archiver persists jobs the mirror has absorbed a terminal status for. The
// archive is history only: it is never read back into the mirror, which
// stays poll-fed.
type Archiver struct {
	queries *Queries
	bus     event.Bus
}

func NewArchiver(db *pgxpool.Pool, bus event.Bus) *Archiver {
	return &Archiver{
		queries: New(db),
		bus:     bus,
	}
}

// SetupSubscribers registers the terminal-job listener on the event bus.
func (a *Archiver) SetupSubscribers() {
	a.bus.Subscribe(event.EventJobTerminal, func(ctx context.Context, e event.Event) error {
		payload, ok := e.Payload.(event.JobEvent)
		if !ok || payload.JobID == "" {
			return nil
		}

		err := a.queries.InsertArchivedJob(ctx, InsertArchivedJobParams{
			JobID:       payload.JobID,
			Name:        payload.Name,
			Status:      payload.Status,
			TasksTotal:  payload.TasksTotal,
			TasksDone:   payload.TasksDone,
			TasksFailed: payload.TasksFailed,
			Error:       payload.Error,
			CreatedAt:   timePtr(payload.CreatedAt),
			StartedAt:   payload.StartedAt,
			EndedAt:     payload.EndedAt,
		})
		if err != nil {
			log.Error().Err(err).Str("job_id", payload.JobID).Str("status", payload.Status).Msg("failed to archive terminal job")
			return nil
		}

		log.Debug().Str("job_id", payload.JobID).Str("status", payload.Status).Msg("terminal job archived")
		return nil
	})
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
