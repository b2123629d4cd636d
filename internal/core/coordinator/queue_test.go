package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkmine/proxx/internal/core/jobspec"
)

func compiled(t *testing.T, name string) jobspec.JobSpecification {
	t.Helper()
	spec, err := jobspec.Compile(testInput(name))
	require.NoError(t, err)
	return spec
}

func TestQueueFIFO(t *testing.T) {
	q := &fifoQueue{}

	assert.Equal(t, 0, q.push(compiled(t, "a")))
	assert.Equal(t, 1, q.push(compiled(t, "b")))
	assert.Equal(t, 2, q.push(compiled(t, "c")))
	assert.Equal(t, 3, q.len())

	head, ok := q.head()
	require.True(t, ok)
	assert.Equal(t, "a", head.Name)
	assert.Equal(t, 3, q.len(), "head does not remove")

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.pop()
		require.True(t, ok)
		assert.Equal(t, want, got.Name)
	}
	_, ok = q.pop()
	assert.False(t, ok)
}

func TestQueueHeadEmpty(t *testing.T) {
	q := &fifoQueue{}
	_, ok := q.head()
	assert.False(t, ok)
}

func TestQueueContains(t *testing.T) {
	q := &fifoQueue{}
	spec := compiled(t, "a")
	q.push(spec)

	assert.True(t, q.contains(spec.ID))
	assert.False(t, q.contains("missing"))
}

func TestQueueSnapshotIsCopy(t *testing.T) {
	q := &fifoQueue{}
	q.push(compiled(t, "a"))
	q.push(compiled(t, "b"))

	snap := q.snapshot()
	require.Len(t, snap, 2)
	q.pop()
	assert.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Name)
}
