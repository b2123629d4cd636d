package coordinator

import (
	"time"

	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/jobspec"
)

// JobView is one row of the merged presentation view. Queued rows are
// synthetic: a frozen pending status derived from the specification, since
// the engine has never heard of them.
type JobView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Status    engine.JobState   `json:"status"`
	Display   engine.JobState   `json:"display"`
	Queued    bool              `json:"queued"`
	Position  int               `json:"position"`
	Counts    engine.TaskCounts `json:"counts"`
	Tasks     []engine.Task     `json:"tasks,omitempty"`
	Error     string            `json:"error,omitempty"`
	Delivery  string            `json:"delivery,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
}

// View is the read-only merged snapshot handed to the presentation layer:
// queued entries in execution order, then mirror entries newest first.
type View struct {
	Jobs        []JobView  `json:"jobs"`
	QueueLength int        `json:"queue_length"`
	Connected   bool       `json:"connected"`
	Dispatching bool       `json:"dispatching"`
	LastError   *LastError `json:"last_error,omitempty"`
}

func (c *Coordinator) View() View {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	view := View{
		QueueLength: c.queue.len(),
		Connected:   c.connected,
		Dispatching: c.dispatching,
	}
	if c.lastError != nil {
		le := *c.lastError
		view.LastError = &le
	}
	for i, spec := range c.queue.snapshot() {
		view.Jobs = append(view.Jobs, queuedView(spec, i))
	}
	for _, rec := range c.mirror.snapshot() {
		view.Jobs = append(view.Jobs, c.recordViewLocked(rec, now))
	}
	return view
}

// Job returns the merged view row for a single id, engine-assigned or
// still-queued.
func (c *Coordinator) Job(id string) (JobView, bool) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec, ok := c.mirror.get(id); ok {
		return c.recordViewLocked(rec, now), true
	}
	for i, spec := range c.queue.snapshot() {
		if spec.ID == id {
			return queuedView(spec, i), true
		}
	}
	return JobView{}, false
}

func (c *Coordinator) recordViewLocked(rec engine.JobRecord, now time.Time) JobView {
	jv := JobView{
		ID:        rec.ID,
		Name:      rec.Name,
		Status:    rec.State,
		Display:   c.smoother.display(rec.ID, rec.State, now),
		Counts:    rec.Counts,
		Error:     rec.Error,
		CreatedAt: rec.CreatedAt,
		StartedAt: rec.StartedAt,
		EndedAt:   rec.EndedAt,
	}
	if tasks, ok := c.detailTasks[rec.ID]; ok {
		jv.Tasks = append([]engine.Task(nil), tasks...)
	}
	return jv
}

func queuedView(spec jobspec.JobSpecification, position int) JobView {
	return JobView{
		ID:        spec.ID,
		Name:      spec.Name,
		Status:    engine.StatePending,
		Display:   engine.StatePending,
		Queued:    true,
		Position:  position,
		Delivery:  string(spec.Delivery),
		CreatedAt: spec.CreatedAt,
	}
}
