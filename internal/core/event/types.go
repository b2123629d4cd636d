package event

import "time"

type EventType string

const (
	// EventAny is a wildcard subscription key, never published directly.
	EventAny EventType = "*"

	// Queue and dispatch lifecycle
	EventQueueChanged   EventType = "queue.changed"
	EventJobDispatched  EventType = "job.dispatched"
	EventDispatchFailed EventType = "dispatch.failed"

	// Mirror updates
	EventMirrorUpdated EventType = "mirror.updated"
	EventJobTerminal   EventType = "job.terminal"

	// Engine connectivity
	EventEngineOnline  EventType = "engine.online"
	EventEngineOffline EventType = "engine.offline"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Payload   any
}

// QueueEvent accompanies queue.changed and dispatch events.
type QueueEvent struct {
	SpecID      string
	Name        string
	QueueLength int
	Error       string
}

// JobEvent accompanies job.terminal: the engine-reported record of a job
// the mirror just absorbed a terminal status for.
type JobEvent struct {
	JobID       string
	Name        string
	Status      string
	TasksTotal  int
	TasksDone   int
	TasksFailed int
	Error       string
	CreatedAt   time.Time
	StartedAt   *time.Time
	EndedAt     *time.Time
}

// EngineEvent accompanies connectivity flips.
type EngineEvent struct {
	Connected bool
	Message   string
}
