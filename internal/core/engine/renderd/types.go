package renderd

import (
	"time"

	"github.com/venkmine/proxx/internal/core/engine"
)

// renderd JSON-RPC request/response types

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      string    `json:"id"`
	Result  any       `json:"result"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type createParams struct {
	Name           string   `json:"name"`
	Sources        []string `json:"sources"`
	OutputDir      string   `json:"outputDir"`
	Codec          string   `json:"codec"`
	Container      string   `json:"container"`
	NamingTemplate string   `json:"namingTemplate"`
	Delivery       string   `json:"delivery"`
}

type createResult struct {
	ID string `json:"id"`
}

type jobInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	State     string     `json:"state"`
	Counts    taskCounts `json:"counts"`
	Error     string     `json:"error"`
	CreatedAt string     `json:"createdAt"`
	StartedAt string     `json:"startedAt"`
	EndedAt   string     `json:"endedAt"`
}

type taskCounts struct {
	Total  int `json:"total"`
	Done   int `json:"done"`
	Failed int `json:"failed"`
}

type taskInfo struct {
	Index  int    `json:"index"`
	Source string `json:"source"`
	State  string `json:"state"`
	Error  string `json:"error"`
}

type jobDetail struct {
	jobInfo
	Tasks []taskInfo `json:"tasks"`
}

type capabilitiesResult struct {
	Codecs        []string `json:"codecs"`
	Containers    []string `json:"containers"`
	Deliveries    []string `json:"deliveries"`
	HardwareAccel []string `json:"hardwareAccel"`
	MaxTasks      int      `json:"maxTasks"`
}

// mapState maps renderd's state vocabulary to controller job states.
func mapState(s string) engine.JobState {
	switch s {
	case "queued":
		return engine.StatePending
	case "rendering":
		return engine.StateRunning
	case "paused":
		return engine.StatePaused
	case "done":
		return engine.StateCompleted
	case "error":
		return engine.StateFailed
	case "cancelled":
		return engine.StateCancelled
	default:
		return engine.StatePending
	}
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func (j jobInfo) toRecord() engine.JobRecord {
	rec := engine.JobRecord{
		ID:    j.ID,
		Name:  j.Name,
		State: mapState(j.State),
		Counts: engine.TaskCounts{
			Total:  j.Counts.Total,
			Done:   j.Counts.Done,
			Failed: j.Counts.Failed,
		},
		Error:     j.Error,
		StartedAt: parseTime(j.StartedAt),
		EndedAt:   parseTime(j.EndedAt),
	}
	if t := parseTime(j.CreatedAt); t != nil {
		rec.CreatedAt = *t
	}
	return rec
}

func (j jobDetail) toDetail() engine.JobDetail {
	d := engine.JobDetail{JobRecord: j.jobInfo.toRecord()}
	for _, t := range j.Tasks {
		d.Tasks = append(d.Tasks, engine.Task{
			Index:  t.Index,
			Source: t.Source,
			State:  mapState(t.State),
			Error:  t.Error,
		})
	}
	return d
}
