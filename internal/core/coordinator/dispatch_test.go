package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/event"
)

func newTestCoordinator(fe *fakeEngine, cfg Config) *Coordinator {
	return New(fe, event.NewBus(), cfg)
}

func TestEvaluateEmptyQueueIssuesNoCalls(t *testing.T) {
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})

	c.evaluateOnce(context.Background())

	assert.Empty(t, fe.callLog())
}

func TestEvaluateSubmitsHeadCreateThenStart(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})

	qlenDuringStart := -1
	fe.startFn = func(string) error {
		qlenDuringStart = c.View().QueueLength
		return nil
	}

	_, err := c.Submit(ctx, testInput("promo"))
	require.NoError(t, err)
	c.evaluateOnce(ctx)

	assert.Equal(t, []string{"create:promo", "start:rj_1", "list"}, fe.callLog())
	assert.Equal(t, 1, qlenDuringStart, "entry must still be queued while start is in flight")
	assert.Equal(t, 0, c.View().QueueLength)
	assert.Nil(t, c.View().LastError)
}

func TestEvaluateCreateWithoutIDDiscardsHead(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})
	fe.createFn = func(engine.CreateRequest) (string, error) { return "", nil }

	_, err := c.Submit(ctx, testInput("promo"))
	require.NoError(t, err)
	c.evaluateOnce(ctx)

	assert.Equal(t, 0, fe.callCount("start"), "start must not be called without a job id")
	assert.Equal(t, 0, c.View().QueueLength)

	le := c.View().LastError
	require.NotNil(t, le)
	assert.Equal(t, "dispatch", le.Kind)
	assert.Contains(t, le.Message, "no job id")
}

func TestEvaluateCreateFailureDiscardsHead(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})
	fe.createFn = func(engine.CreateRequest) (string, error) {
		return "", errors.New("engine storage full")
	}

	_, err := c.Submit(ctx, testInput("promo"))
	require.NoError(t, err)
	_, err = c.Submit(ctx, testInput("dailies"))
	require.NoError(t, err)
	c.evaluateOnce(ctx)

	assert.Equal(t, 1, c.View().QueueLength, "only the offending head is discarded")
	require.NotNil(t, c.View().LastError)
	assert.Contains(t, c.View().LastError.Message, "engine storage full")

	// The next evaluation proceeds with the new head.
	fe.createFn = func(engine.CreateRequest) (string, error) { return "rj_2", nil }
	c.evaluateOnce(ctx)
	assert.Equal(t, 0, c.View().QueueLength)
	assert.Equal(t, 1, fe.callCount("start"))
}

func TestEvaluateStartFailureStillDiscards(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})
	fe.startFn = func(string) error { return errors.New("no render slots") }

	_, err := c.Submit(ctx, testInput("promo"))
	require.NoError(t, err)
	c.evaluateOnce(ctx)

	assert.Equal(t, 0, c.View().QueueLength)
	assert.Equal(t, 0, fe.callCount("list"), "no refresh after a failed start")

	le := c.View().LastError
	require.NotNil(t, le)
	assert.Equal(t, "dispatch", le.Kind)
	assert.Contains(t, le.Message, "start")
}

func TestEvaluateBlockedWhileMirrorHasRunning(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})

	fe.setList(runningRecord("rj_9", "other", time.Now()))
	c.pollOnce(ctx)

	_, err := c.Submit(ctx, testInput("promo"))
	require.NoError(t, err)
	c.evaluateOnce(ctx)

	assert.Equal(t, 0, fe.callCount("create"))
	assert.Equal(t, 1, c.View().QueueLength)
}

func TestEvaluateBlockedWhileDispatchLockHeld(t *testing.T) {
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})

	_, err := c.Submit(context.Background(), testInput("promo"))
	require.NoError(t, err)

	c.mu.Lock()
	c.dispatching = true
	c.mu.Unlock()

	c.evaluateOnce(context.Background())
	assert.Equal(t, 0, fe.callCount("create"))
}

func TestPausedJobDoesNotBlockDispatch(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})

	fe.setList(engine.JobRecord{ID: "rj_9", Name: "held", State: engine.StatePaused, CreatedAt: time.Now()})
	c.pollOnce(ctx)

	_, err := c.Submit(ctx, testInput("promo"))
	require.NoError(t, err)
	c.evaluateOnce(ctx)

	assert.Equal(t, 1, fe.callCount("create"))
}

func TestTerminalAbsorptionTriggersNextDispatch(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})
	created := time.Now()

	_, err := c.Submit(ctx, testInput("first"))
	require.NoError(t, err)
	_, err = c.Submit(ctx, testInput("second"))
	require.NoError(t, err)

	fe.setList(runningRecord("rj_1", "first", created))
	c.evaluateOnce(ctx)
	require.Equal(t, 1, fe.callCount("create"))
	require.Equal(t, 1, c.View().QueueLength)

	// The second head stays put while the first job runs.
	c.evaluateOnce(ctx)
	require.Equal(t, 1, fe.callCount("create"))

	// First job finishes; the poll that absorbs the terminal status raises
	// an evaluation trigger, and that evaluation submits the second entry.
	drainTrigger(c)
	fe.setList(terminalRecord("rj_1", "first", engine.StateCompleted, created))
	c.pollOnce(ctx)

	select {
	case <-c.evaluateCh:
	default:
		t.Fatal("expected an evaluation trigger after the terminal merge")
	}
	c.evaluateOnce(ctx)

	assert.Equal(t, 2, fe.callCount("create"))
	assert.Equal(t, 0, c.View().QueueLength)
}

func TestSubmissionOrderIsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	fe := newFakeEngine()
	c := newTestCoordinator(fe, Config{})
	created := time.Now()

	for _, name := range []string{"one", "two", "three"} {
		_, err := c.Submit(ctx, testInput(name))
		require.NoError(t, err)
	}

	// Let each job run to completion between evaluations.
	for i := 1; i <= 3; i++ {
		c.evaluateOnce(ctx)
		fe.setList(terminalRecord(fmt.Sprintf("rj_%d", i), "", engine.StateCompleted, created))
		c.pollOnce(ctx)
	}

	var creates []string
	for _, call := range fe.callLog() {
		if len(call) > 7 && call[:7] == "create:" {
			creates = append(creates, call[7:])
		}
	}
	assert.Equal(t, []string{"one", "two", "three"}, creates)
}

func drainTrigger(c *Coordinator) {
	select {
	case <-c.evaluateCh:
	default:
	}
}
