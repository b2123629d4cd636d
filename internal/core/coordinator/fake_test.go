package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/venkmine/proxx/internal/core/engine"
	"github.com/venkmine/proxx/internal/core/jobspec"
)

// fakeEngine is a scriptable engine.Client. Every call is appended to the
// call log; per-operation behavior is overridable.
type fakeEngine struct {
	mu     sync.Mutex
	log    []string
	nextID int

	createFn func(engine.CreateRequest) (string, error)
	startFn  func(string) error
	pauseFn  func(string) error
	resumeFn func(string) error
	cancelFn func(string) error
	deleteFn func(string) error
	listFn   func() ([]engine.JobRecord, error)
	detailFn func(string) (engine.JobDetail, error)
}

func newFakeEngine() *fakeEngine {
	f := &fakeEngine{}
	f.createFn = func(engine.CreateRequest) (string, error) {
		f.mu.Lock()
		f.nextID++
		id := f.nextID
		f.mu.Unlock()
		return fmt.Sprintf("rj_%d", id), nil
	}
	ok := func(string) error { return nil }
	f.startFn, f.pauseFn, f.resumeFn, f.cancelFn, f.deleteFn = ok, ok, ok, ok, ok
	f.listFn = func() ([]engine.JobRecord, error) { return nil, nil }
	f.detailFn = func(id string) (engine.JobDetail, error) {
		return engine.JobDetail{}, fmt.Errorf("no detail for %s", id)
	}
	return f
}

func (f *fakeEngine) record(entry string) {
	f.mu.Lock()
	f.log = append(f.log, entry)
	f.mu.Unlock()
}

func (f *fakeEngine) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.log))
	copy(out, f.log)
	return out
}

func (f *fakeEngine) callCount(prefix string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == prefix || len(c) > len(prefix) && c[:len(prefix)+1] == prefix+":" {
			n++
		}
	}
	return n
}

func (f *fakeEngine) setList(records ...engine.JobRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listFn = func() ([]engine.JobRecord, error) { return records, nil }
}

func (f *fakeEngine) Version(context.Context) (string, error) { return "1.0-test", nil }

func (f *fakeEngine) Capabilities(context.Context) (engine.Capabilities, error) {
	return engine.Capabilities{}, nil
}

func (f *fakeEngine) Health(context.Context) engine.HealthStatus {
	return engine.HealthStatus{OK: true}
}

func (f *fakeEngine) Create(_ context.Context, req engine.CreateRequest) (string, error) {
	f.record("create:" + req.Name)
	f.mu.Lock()
	fn := f.createFn
	f.mu.Unlock()
	return fn(req)
}

func (f *fakeEngine) Start(_ context.Context, id string) error {
	f.record("start:" + id)
	f.mu.Lock()
	fn := f.startFn
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeEngine) Pause(_ context.Context, id string) error {
	f.record("pause:" + id)
	f.mu.Lock()
	fn := f.pauseFn
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeEngine) Resume(_ context.Context, id string) error {
	f.record("resume:" + id)
	f.mu.Lock()
	fn := f.resumeFn
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeEngine) Cancel(_ context.Context, id string) error {
	f.record("cancel:" + id)
	f.mu.Lock()
	fn := f.cancelFn
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeEngine) Delete(_ context.Context, id string) error {
	f.record("delete:" + id)
	f.mu.Lock()
	fn := f.deleteFn
	f.mu.Unlock()
	return fn(id)
}

func (f *fakeEngine) List(context.Context) ([]engine.JobRecord, error) {
	f.record("list")
	f.mu.Lock()
	fn := f.listFn
	f.mu.Unlock()
	return fn()
}

func (f *fakeEngine) Detail(_ context.Context, id string) (engine.JobDetail, error) {
	f.record("detail:" + id)
	f.mu.Lock()
	fn := f.detailFn
	f.mu.Unlock()
	return fn(id)
}

// fakeClock is a manually advanced clock for display-duration tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{t: start}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testInput(name string) jobspec.Input {
	return jobspec.Input{
		Name:        name,
		SourcePaths: []string{"/mnt/media/" + name + ".mov"},
		OutputDir:   "/mnt/out",
		Codec:       "prores_proxy",
		Container:   "mov",
		Delivery:    jobspec.DeliveryEditorial,
	}
}

func runningRecord(id, name string, created time.Time) engine.JobRecord {
	return engine.JobRecord{ID: id, Name: name, State: engine.StateRunning, CreatedAt: created}
}

func terminalRecord(id, name string, state engine.JobState, created time.Time) engine.JobRecord {
	return engine.JobRecord{ID: id, Name: name, State: state, CreatedAt: created}
}
