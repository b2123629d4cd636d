package coordinator

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/event"
	"github.com/venkmine/proxx/internal/core/jobspec"
)

// evaluateOnce runs a single dispatch evaluation: decide whether the queue
// head should be submitted and, if so, drive the create/start exchange to
// its end. Whatever the outcome, the head leaves the queue; a failed
// submission is never retried or requeued.
func (c *Coordinator) evaluateOnce(ctx context.Context) {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	if c.mirror.anyRunning() {
		c.mu.Unlock()
		return
	}
	spec, ok := c.queue.head()
	if !ok {
		c.mu.Unlock()
		return
	}
	c.dispatching = true
	c.mu.Unlock()

	log.Info().Str("spec_id", spec.ID).Str("name", spec.Name).Msg("dispatching queue head")

	id, err := c.client.Create(ctx, engine.CreateRequest{
		Name:           spec.Name,
		SourcePaths:    spec.SourcePaths,
		OutputDir:      spec.OutputDir,
		Codec:          spec.Codec,
		Container:      spec.Container,
		NamingTemplate: spec.NamingTemplate,
		Delivery:       string(spec.Delivery),
	})
	if err == nil && id == "" {
		err = errNoJobID
	}
	if err != nil {
		c.finishDispatch(ctx, spec, &DispatchError{SpecID: spec.ID, Name: spec.Name, Stage: "create", Err: err})
		return
	}

	if err := c.client.Start(ctx, id); err != nil {
		// The remote job now exists but never started; it stays behind as a
		// dead engine record. The local entry is still discarded.
		c.finishDispatch(ctx, spec, &DispatchError{SpecID: spec.ID, Name: spec.Name, Stage: "start", Err: err})
		return
	}

	log.Info().Str("spec_id", spec.ID).Str("job_id", id).Msg("job started on engine")
	c.finishDispatch(ctx, spec, nil)

	// Immediate refresh: the new running row must land in the mirror before
	// the next evaluation runs.
	c.pollOnce(ctx)
}

// finishDispatch removes the head, releases the dispatch lock, latches any
// error, and emits the resulting events.
func (c *Coordinator) finishDispatch(ctx context.Context, spec jobspec.JobSpecification, derr *DispatchError) {
	c.mu.Lock()
	head, ok := c.queue.pop()
	if !ok || head.ID != spec.ID {
		log.Error().Str("spec_id", spec.ID).Msg("queue head changed during dispatch")
	}
	c.dispatching = false
	if derr != nil {
		c.lastError = &LastError{Kind: "dispatch", Message: derr.Error(), OccurredAt: c.now()}
	}
	qlen := c.queue.len()
	c.mu.Unlock()

	if derr != nil {
		log.Warn().Err(derr).Str("spec_id", spec.ID).Str("stage", derr.Stage).Msg("dispatch failed, entry discarded")
		c.publish(ctx, event.EventDispatchFailed, event.QueueEvent{
			SpecID: spec.ID, Name: spec.Name, QueueLength: qlen, Error: derr.Error(),
		})
	} else {
		c.publish(ctx, event.EventJobDispatched, event.QueueEvent{
			SpecID: spec.ID, Name: spec.Name, QueueLength: qlen,
		})
	}
	c.publish(ctx, event.EventQueueChanged, event.QueueEvent{
		SpecID: spec.ID, Name: spec.Name, QueueLength: qlen,
	})
	c.triggerEvaluate()
}
