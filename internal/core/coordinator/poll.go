package coordinator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/event"
)

// pollOnce fetches the engine's summary listing and merges it into the
// mirror. A failed poll flips the connectivity indicator and leaves the
// mirror exactly as it was.
func (c *Coordinator) pollOnce(ctx context.Context) {
	records, err := c.client.List(ctx)
	if err != nil {
		c.setConnected(ctx, false, &PollError{Op: "list", Err: err})
		return
	}
	c.setConnected(ctx, true, nil)

	now := c.now()
	c.mu.Lock()
	changed, newlyTerminal, removed := c.mirror.mergeList(records)
	for _, rec := range records {
		if cur, ok := c.mirror.get(rec.ID); ok {
			c.smoother.observe(cur.ID, cur.State, now)
		}
	}
	for _, id := range removed {
		c.smoother.forget(id)
		delete(c.detailTasks, id)
	}
	for _, rec := range newlyTerminal {
		c.scheduleDisplayRefresh(rec.ID, now)
	}
	c.mu.Unlock()

	for _, rec := range newlyTerminal {
		log.Info().Str("job_id", rec.ID).Str("status", string(rec.State)).Msg("terminal status absorbed")
		c.publish(ctx, event.EventJobTerminal, jobEventFrom(rec))
	}
	if changed {
		c.publish(ctx, event.EventMirrorUpdated, nil)
		c.triggerEvaluate()
	}
}

// pollDetailsOnce fetches per-job detail for every running or paused id.
// Detail merges go through the same absorption rule as the summary poll;
// the task breakdown is cached for the view.
func (c *Coordinator) pollDetailsOnce(ctx context.Context) {
	c.mu.Lock()
	ids := c.mirror.activeIDs()
	c.mu.Unlock()

	for _, id := range ids {
		detail, err := c.client.Detail(ctx, id)
		if err != nil {
			c.setConnected(ctx, false, &PollError{Op: "detail", Err: err})
			continue
		}
		c.setConnected(ctx, true, nil)

		now := c.now()
		c.mu.Lock()
		if _, ok := c.mirror.get(id); !ok {
			// Pruned between the listing and this detail fetch; a detail
			// merge must not resurrect it.
			c.mu.Unlock()
			continue
		}
		changed, newlyTerminal := c.mirror.mergeRecord(detail.JobRecord)
		if cur, ok := c.mirror.get(id); ok {
			c.smoother.observe(id, cur.State, now)
		}
		if !tasksEqual(c.detailTasks[id], detail.Tasks) {
			c.detailTasks[id] = detail.Tasks
			changed = true
		}
		if newlyTerminal != nil {
			c.scheduleDisplayRefresh(id, now)
		}
		c.mu.Unlock()

		if newlyTerminal != nil {
			log.Info().Str("job_id", id).Str("status", string(newlyTerminal.State)).Msg("terminal status absorbed")
			c.publish(ctx, event.EventJobTerminal, jobEventFrom(*newlyTerminal))
		}
		if changed {
			c.publish(ctx, event.EventMirrorUpdated, nil)
			c.triggerEvaluate()
		}
	}
}

// setConnected tracks poll health. Only flips are logged and published;
// repeat failures stay at debug level.
func (c *Coordinator) setConnected(ctx context.Context, ok bool, perr *PollError) {
	c.mu.Lock()
	was := c.connected
	c.connected = ok
	c.mu.Unlock()

	if was == ok {
		if !ok {
			log.Debug().Err(perr).Msg("engine still unreachable")
		}
		return
	}
	if ok {
		log.Info().Msg("engine connectivity restored")
		c.publish(ctx, event.EventEngineOnline, event.EngineEvent{Connected: true})
		return
	}
	log.Warn().Err(perr).Msg("engine unreachable, keeping last known job states")
	c.publish(ctx, event.EventEngineOffline, event.EngineEvent{Connected: false, Message: perr.Error()})
}

// scheduleDisplayRefresh arranges a view refresh signal for when a masked
// terminal status becomes displayable. Caller holds the state lock.
func (c *Coordinator) scheduleDisplayRefresh(id string, now time.Time) {
	deadline, ok := c.smoother.maskedUntil(id, now)
	if !ok {
		return
	}
	time.AfterFunc(deadline.Sub(now), func() {
		c.publish(context.Background(), event.EventMirrorUpdated, nil)
	})
}

func jobEventFrom(rec engine.JobRecord) event.JobEvent {
	return event.JobEvent{
		JobID:       rec.ID,
		Name:        rec.Name,
		Status:      string(rec.State),
		TasksTotal:  rec.Counts.Total,
		TasksDone:   rec.Counts.Done,
		TasksFailed: rec.Counts.Failed,
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		StartedAt:   rec.StartedAt,
		EndedAt:     rec.EndedAt,
	}
}

func tasksEqual(a, b []engine.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
