// Package coordinator owns the execution pipeline between the local job
// queue and the render engine. It decides when the queue head is submitted,
// mirrors engine-reported state, serializes operator commands, and derives
// the merged view the presentation layer renders.
//
// One coordinator exists per process. The queue and the mirror live inside
// it and are reachable only through its methods: the queue is mutated only
// by the dispatch path, the mirror only by the polling path.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/event"
	"github.com/venkmine/proxx/internal/core/jobspec"
)

type Config struct {
	// ActiveInterval is the summary poll cadence while any mirror entry is
	// running; IdleInterval applies otherwise.
	ActiveInterval time.Duration
	IdleInterval   time.Duration
	// DetailInterval is the cadence of the per-job detail poll, which only
	// covers running and paused jobs.
	DetailInterval time.Duration
	// MinDisplayDuration is how long a job that was seen running keeps
	// displaying as running even if it finished faster.
	MinDisplayDuration time.Duration
	// Now is overridable for tests.
	Now func() time.Time
}

func (cfg Config) withDefaults() Config {
	if cfg.ActiveInterval <= 0 {
		cfg.ActiveInterval = 2 * time.Second
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = 10 * time.Second
	}
	if cfg.DetailInterval <= 0 {
		cfg.DetailInterval = 3 * time.Second
	}
	if cfg.MinDisplayDuration <= 0 {
		cfg.MinDisplayDuration = 1500 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

type opClass string

const (
	opStart  opClass = "start"
	opPause  opClass = "pause"
	opResume opClass = "resume"
	opCancel opClass = "cancel"
	opDelete opClass = "delete"
)

type opKey struct {
	jobID string
	class opClass
}

type Coordinator struct {
	mu          sync.Mutex
	queue       *fifoQueue
	mirror      *stateMirror
	smoother    *smoother
	opLocks     map[opKey]struct{}
	dispatching bool
	connected   bool
	lastError   *LastError
	detailTasks map[string][]engine.Task

	client engine.Client
	bus    event.Bus
	cfg    Config
	now    func() time.Time

	evaluateCh chan struct{}
	refreshCh  chan struct{}
}

func New(client engine.Client, bus event.Bus, cfg Config) *Coordinator {
	cfg = cfg.withDefaults()
	return &Coordinator{
		queue:       &fifoQueue{},
		mirror:      newStateMirror(),
		smoother:    newSmoother(cfg.MinDisplayDuration),
		opLocks:     make(map[opKey]struct{}),
		connected:   true,
		detailTasks: make(map[string][]engine.Task),
		client:      client,
		bus:         bus,
		cfg:         cfg,
		now:         cfg.Now,
		evaluateCh:  make(chan struct{}, 1),
		refreshCh:   make(chan struct{}, 1),
	}
}

// Submit compiles the input into an immutable specification and appends it
// to the queue. A validation failure is returned as-is and mutates nothing.
func (c *Coordinator) Submit(ctx context.Context, in jobspec.Input) (jobspec.JobSpecification, error) {
	spec, err := jobspec.Compile(in)
	if err != nil {
		return jobspec.JobSpecification{}, err
	}

	c.mu.Lock()
	pos := c.queue.push(spec)
	qlen := c.queue.len()
	c.mu.Unlock()

	log.Info().Str("spec_id", spec.ID).Str("name", spec.Name).Int("position", pos).Msg("job queued")
	c.publish(ctx, event.EventQueueChanged, event.QueueEvent{SpecID: spec.ID, Name: spec.Name, QueueLength: qlen})
	c.triggerEvaluate()
	return spec, nil
}

// StartJob and friends issue operator commands against engine job ids. All
// of them go through the per-(id, class) operation lock.
func (c *Coordinator) StartJob(ctx context.Context, id string) error {
	return c.command(ctx, id, opStart, c.client.Start)
}

func (c *Coordinator) PauseJob(ctx context.Context, id string) error {
	return c.command(ctx, id, opPause, c.client.Pause)
}

func (c *Coordinator) ResumeJob(ctx context.Context, id string) error {
	return c.command(ctx, id, opResume, c.client.Resume)
}

func (c *Coordinator) CancelJob(ctx context.Context, id string) error {
	return c.command(ctx, id, opCancel, c.client.Cancel)
}

func (c *Coordinator) DeleteJob(ctx context.Context, id string) error {
	return c.command(ctx, id, opDelete, c.client.Delete)
}

// command serializes one mutating engine call per (job id, operation
// class). A second call arriving while the first is still in flight is
// dropped locally: no error, no network effect.
func (c *Coordinator) command(ctx context.Context, id string, class opClass, call func(context.Context, string) error) error {
	c.mu.Lock()
	if _, inMirror := c.mirror.get(id); !inMirror {
		stillQueued := c.queue.contains(id)
		c.mu.Unlock()
		if stillQueued {
			return &OperationError{JobID: id, Op: string(class), Err: ErrStillQueued}
		}
		return &OperationError{JobID: id, Op: string(class), Err: ErrUnknownJob}
	}
	key := opKey{jobID: id, class: class}
	if _, held := c.opLocks[key]; held {
		c.mu.Unlock()
		log.Debug().Str("job_id", id).Str("op", string(class)).Msg("duplicate command dropped")
		return nil
	}
	c.opLocks[key] = struct{}{}
	c.mu.Unlock()

	err := call(ctx, id)

	c.mu.Lock()
	delete(c.opLocks, key)
	var oerr *OperationError
	if err != nil {
		oerr = &OperationError{JobID: id, Op: string(class), Err: err}
		c.lastError = &LastError{Kind: "operation", Message: oerr.Error(), OccurredAt: c.now()}
	}
	c.mu.Unlock()

	if oerr != nil {
		log.Warn().Err(err).Str("job_id", id).Str("op", string(class)).Msg("engine command failed")
		return oerr
	}

	log.Info().Str("job_id", id).Str("op", string(class)).Msg("engine command accepted")
	c.triggerRefresh()
	return nil
}

// DismissError clears the persistent error banner. Nothing else clears it.
func (c *Coordinator) DismissError() {
	c.mu.Lock()
	c.lastError = nil
	c.mu.Unlock()
	log.Debug().Msg("last error dismissed")
}

// Run drives polling and dispatch until the context is cancelled. All
// dispatch evaluations and all mirror writes happen on this goroutine.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info().
		Dur("active_interval", c.cfg.ActiveInterval).
		Dur("idle_interval", c.cfg.IdleInterval).
		Msg("coordinator started")

	c.pollOnce(ctx)
	c.evaluateOnce(ctx)

	detail := time.NewTicker(c.cfg.DetailInterval)
	defer detail.Stop()

	for {
		timer := time.NewTimer(c.nextPollInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info().Msg("coordinator stopped")
			return
		case <-c.evaluateCh:
			timer.Stop()
			c.evaluateOnce(ctx)
		case <-c.refreshCh:
			timer.Stop()
			c.pollOnce(ctx)
		case <-detail.C:
			timer.Stop()
			c.pollDetailsOnce(ctx)
		case <-timer.C:
			c.pollOnce(ctx)
		}
	}
}

func (c *Coordinator) nextPollInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mirror.anyRunning() {
		return c.cfg.ActiveInterval
	}
	return c.cfg.IdleInterval
}

func (c *Coordinator) publish(ctx context.Context, typ event.EventType, payload any) {
	_ = c.bus.Publish(ctx, event.Event{Type: typ, Payload: payload})
}

// triggerEvaluate and triggerRefresh collapse into at most one pending
// trigger each.
func (c *Coordinator) triggerEvaluate() {
	select {
	case c.evaluateCh <- struct{}{}:
	default:
	}
}

func (c *Coordinator) triggerRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}
