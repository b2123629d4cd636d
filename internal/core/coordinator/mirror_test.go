package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkmine/proxx/internal/core/engine"
)

func TestMirrorTerminalStatusIsAbsorbing(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	_, nt := m.mergeRecord(terminalRecord("job_1", "promo", engine.StateCompleted, created))
	require.NotNil(t, nt)
	assert.Equal(t, engine.StateCompleted, nt.State)

	// A late, stale poll reports the job as running again.
	changed, nt := m.mergeRecord(runningRecord("job_1", "promo", created))
	assert.Nil(t, nt)
	assert.False(t, changed)

	rec, ok := m.get("job_1")
	require.True(t, ok)
	assert.Equal(t, engine.StateCompleted, rec.State)
}

func TestMirrorTerminalStatusNeverSwitchesTerminalKind(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	m.mergeRecord(terminalRecord("job_1", "promo", engine.StateFailed, created))
	m.mergeRecord(terminalRecord("job_1", "promo", engine.StateCancelled, created))

	rec, _ := m.get("job_1")
	assert.Equal(t, engine.StateFailed, rec.State)
}

func TestMirrorTerminalRowStillRefreshesCounts(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	first := terminalRecord("job_1", "promo", engine.StateCompleted, created)
	first.Counts = engine.TaskCounts{Total: 8, Done: 7}
	m.mergeRecord(first)

	late := runningRecord("job_1", "promo", created)
	late.Counts = engine.TaskCounts{Total: 8, Done: 8}
	changed, _ := m.mergeRecord(late)

	assert.True(t, changed)
	rec, _ := m.get("job_1")
	assert.Equal(t, engine.StateCompleted, rec.State, "status keeps the absorbed value")
	assert.Equal(t, 8, rec.Counts.Done, "counts refresh from the newer poll")
}

func TestMirrorListPrunesMissingIDs(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	m.mergeList([]engine.JobRecord{
		runningRecord("job_1", "a", created),
		terminalRecord("job_2", "b", engine.StateCompleted, created),
	})

	changed, _, removed := m.mergeList([]engine.JobRecord{
		runningRecord("job_1", "a", created),
	})

	assert.True(t, changed)
	assert.Equal(t, []string{"job_2"}, removed)
	_, ok := m.get("job_2")
	assert.False(t, ok)
}

func TestMirrorListReportsNewlyTerminalOnce(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	_, nt, _ := m.mergeList([]engine.JobRecord{terminalRecord("job_1", "a", engine.StateFailed, created)})
	require.Len(t, nt, 1)

	_, nt, _ = m.mergeList([]engine.JobRecord{terminalRecord("job_1", "a", engine.StateFailed, created)})
	assert.Empty(t, nt)
}

func TestMirrorUnchangedListReportsNoChange(t *testing.T) {
	m := newStateMirror()
	created := time.Now().Truncate(time.Second)
	rec := runningRecord("job_1", "a", created)

	changed, _, _ := m.mergeList([]engine.JobRecord{rec})
	assert.True(t, changed)

	changed, _, _ = m.mergeList([]engine.JobRecord{rec})
	assert.False(t, changed)
}

func TestMirrorAnyRunning(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	assert.False(t, m.anyRunning())
	m.mergeRecord(engine.JobRecord{ID: "p", State: engine.StatePaused, CreatedAt: created})
	assert.False(t, m.anyRunning(), "paused is not running")
	m.mergeRecord(runningRecord("r", "x", created))
	assert.True(t, m.anyRunning())
}

func TestMirrorActiveIDs(t *testing.T) {
	m := newStateMirror()
	created := time.Now()

	m.mergeRecord(runningRecord("b", "x", created))
	m.mergeRecord(engine.JobRecord{ID: "a", State: engine.StatePaused, CreatedAt: created})
	m.mergeRecord(terminalRecord("c", "y", engine.StateCompleted, created))
	m.mergeRecord(engine.JobRecord{ID: "d", State: engine.StatePending, CreatedAt: created})

	assert.Equal(t, []string{"a", "b"}, m.activeIDs())
}

func TestMirrorSnapshotNewestFirst(t *testing.T) {
	m := newStateMirror()
	base := time.Now()

	m.mergeRecord(runningRecord("old", "x", base.Add(-time.Hour)))
	m.mergeRecord(runningRecord("new", "y", base))

	snap := m.snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "new", snap[0].ID)
	assert.Equal(t, "old", snap[1].ID)
}
