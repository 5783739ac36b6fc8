package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/platinummonkey/warden/pkg/audit"
	"github.com/platinummonkey/warden/pkg/storage"
)

// recordingAudit captures audit events for assertions.
type recordingAudit struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (r *recordingAudit) Log(ctx context.Context, event *audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *recordingAudit) byType(t audit.EventType) []*audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*audit.Event
	for _, e := range r.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// testClock is a manually stepped time source.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testFixture struct {
	engine  *Engine
	backend *storage.MemoryBackend
	audit   *recordingAudit
	clock   *testClock
}

func newTestEngine(t *testing.T, opts ...Option) *testFixture {
	t.Helper()
	f := &testFixture{
		backend: storage.NewMemoryBackend(),
		audit:   &recordingAudit{},
		clock:   newTestClock(),
	}
	base := []Option{
		WithAuditLogger(f.audit),
		WithClock(f.clock.Now),
		WithJWT([]byte("test-signing-secret"), "warden-test", time.Hour),
	}
	f.engine = New(f.backend, append(base, opts...)...)
	return f
}
