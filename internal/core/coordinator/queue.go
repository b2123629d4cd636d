package coordinator

import "github.com/venkmine/proxx/internal/core/jobspec"

// fifoQueue holds not-yet-submitted specifications in insertion order.
// Insertion order is execution order. Entries leave only through dispatch;
// nothing is ever requeued.
type fifoQueue struct {
	entries []jobspec.JobSpecification
}

func (q *fifoQueue) push(spec jobspec.JobSpecification) int {
	q.entries = append(q.entries, spec)
	return len(q.entries) - 1
}

func (q *fifoQueue) head() (jobspec.JobSpecification, bool) {
	if len(q.entries) == 0 {
		return jobspec.JobSpecification{}, false
	}
	return q.entries[0], true
}

func (q *fifoQueue) pop() (jobspec.JobSpecification, bool) {
	if len(q.entries) == 0 {
		return jobspec.JobSpecification{}, false
	}
	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

func (q *fifoQueue) len() int { return len(q.entries) }

func (q *fifoQueue) contains(specID string) bool {
	for _, e := range q.entries {
		if e.ID == specID {
			return true
		}
	}
	return false
}

func (q *fifoQueue) snapshot() []jobspec.JobSpecification {
	out := make([]jobspec.JobSpecification, len(q.entries))
	copy(out, q.entries)
	return out
}
