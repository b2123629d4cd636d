package engine

import (
	"context"
	"time"
)

// Client is the render engine interface. The engine is the sole authority
// over job status; everything the controller knows about a job after
// submission comes back through List and Detail.
type Client interface {
	Version(ctx context.Context) (string, error)
	Capabilities(ctx context.Context) (Capabilities, error)
	Health(ctx context.Context) HealthStatus

	// Job operations. Create returns the engine's canonical job id.
	Create(ctx context.Context, req CreateRequest) (string, error)
	Start(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error

	// Polling. List is the summary poll; Detail is issued per job and
	// additionally carries the task breakdown.
	List(ctx context.Context) ([]JobRecord, error)
	Detail(ctx context.Context, id string) (JobDetail, error)
}

type CreateRequest struct {
	Name           string
	SourcePaths    []string
	OutputDir      string
	Codec          string
	Container      string
	NamingTemplate string
	Delivery       string
}

type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StatePaused    JobState = "paused"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// IsTerminal reports whether the state is absorbing: once an engine reports
// it for a job id, no later report may replace it.
func (s JobState) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// TaskCounts summarizes per-job task progress as reported by the engine.
type TaskCounts struct {
	Total  int `json:"total"`
	Done   int `json:"done"`
	Failed int `json:"failed"`
}

// JobRecord is one row of the engine's summary listing.
type JobRecord struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	State     JobState   `json:"state"`
	Counts    TaskCounts `json:"counts"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// JobDetail is the per-job detail report: the summary row plus the task
// breakdown the engine only materializes on request.
type JobDetail struct {
	JobRecord
	Tasks []Task `json:"tasks"`
}

type Task struct {
	Index  int      `json:"index"`
	Source string   `json:"source"`
	State  JobState `json:"state"`
	Error  string   `json:"error,omitempty"`
}

type Capabilities struct {
	Codecs        []string `json:"codecs"`
	Containers    []string `json:"containers"`
	Deliveries    []string `json:"deliveries"`
	HardwareAccel []string `json:"hardware_accel"`
	MaxTasks      int      `json:"max_tasks"`
}

type HealthStatus struct {
	OK      bool
	Message string
	Latency time.Duration
}
