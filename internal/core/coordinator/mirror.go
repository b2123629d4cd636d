package coordinator

import (
	"sort"
	"time"

	"github.com/venkmine/proxx/internal/core/engine"
)

// stateMirror is the local read cache of engine-reported job records. It is
// never a source of new facts: every entry comes from a poll, and a terminal
// status, once observed for an id, is absorbing.
type stateMirror struct {
	records map[string]engine.JobRecord
}

func newStateMirror() *stateMirror {
	return &stateMirror{records: make(map[string]engine.JobRecord)}
}

// mergeRecord applies one polled record. If the mirror already holds a
// terminal status for the id, that status is kept regardless of what the
// poll reported; the remaining fields still refresh. The same rule serves
// both the summary listing and the per-job detail poll.
//
// Returns whether the stored row changed and, when this merge is the first
// to observe a terminal status for the id, the stored terminal record.
func (m *stateMirror) mergeRecord(rec engine.JobRecord) (changed bool, newlyTerminal *engine.JobRecord) {
	cur, ok := m.records[rec.ID]
	if ok && cur.State.IsTerminal() {
		rec.State = cur.State
		m.records[rec.ID] = rec
		return !recordsEqual(cur, rec), nil
	}
	m.records[rec.ID] = rec
	if rec.State.IsTerminal() {
		stored := rec
		return true, &stored
	}
	return !ok || !recordsEqual(cur, rec), nil
}

// mergeList applies a full summary poll. The listing is authoritative for
// membership: ids the engine no longer reports are dropped.
func (m *stateMirror) mergeList(records []engine.JobRecord) (changed bool, newlyTerminal []engine.JobRecord, removed []string) {
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		seen[rec.ID] = struct{}{}
		ch, nt := m.mergeRecord(rec)
		changed = changed || ch
		if nt != nil {
			newlyTerminal = append(newlyTerminal, *nt)
		}
	}
	for id := range m.records {
		if _, ok := seen[id]; !ok {
			delete(m.records, id)
			removed = append(removed, id)
			changed = true
		}
	}
	return changed, newlyTerminal, removed
}

func (m *stateMirror) get(id string) (engine.JobRecord, bool) {
	rec, ok := m.records[id]
	return rec, ok
}

func (m *stateMirror) anyRunning() bool {
	for _, rec := range m.records {
		if rec.State == engine.StateRunning {
			return true
		}
	}
	return false
}

// activeIDs lists the ids the detail poll should cover: running or paused.
func (m *stateMirror) activeIDs() []string {
	var ids []string
	for id, rec := range m.records {
		if rec.State == engine.StateRunning || rec.State == engine.StatePaused {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// snapshot returns all records, newest first.
func (m *stateMirror) snapshot() []engine.JobRecord {
	out := make([]engine.JobRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func recordsEqual(a, b engine.JobRecord) bool {
	return a.ID == b.ID &&
		a.Name == b.Name &&
		a.State == b.State &&
		a.Counts == b.Counts &&
		a.Error == b.Error &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		timePtrEqual(a.StartedAt, b.StartedAt) &&
		timePtrEqual(a.EndedAt, b.EndedAt)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
