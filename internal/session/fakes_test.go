package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/tracker"
	"github.com/AyinalaDhorasatyamurthy/peer2peer-VM-prj/internal/transport"
)

type emitted struct {
	Name    string
	Payload any
}

type fakeConn struct {
	mu      sync.Mutex
	id      string
	sink    transport.Sink
	emits   []emitted
	closed  bool
	emitErr error
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Emit(name string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.emitErr != nil {
		return c.emitErr
	}
	c.emits = append(c.emits, emitted{Name: name, Payload: payload})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Emitted() []emitted {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]emitted(nil), c.emits...)
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type fakeOpener struct {
	mu        sync.Mutex
	endpoints []string
	conns     []*fakeConn
}

func (o *fakeOpener) Open(endpoint string, sink transport.Sink) transport.Conn {
	o.mu.Lock()
	defer o.mu.Unlock()
	c := &fakeConn{id: fmt.Sprintf("session-%d", len(o.conns)+1), sink: sink}
	o.endpoints = append(o.endpoints, endpoint)
	o.conns = append(o.conns, c)
	return c
}

func (o *fakeOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.conns)
}

func (o *fakeOpener) last(t *testing.T) *fakeConn {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.conns, "no session opened")
	return o.conns[len(o.conns)-1]
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// fakeScheduler queues timers until the test fires them.
type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	tm := &fakeTimer{delay: d, fn: f}
	s.timers = append(s.timers, tm)
	return func() bool {
		pending := !tm.stopped && !tm.fired
		tm.stopped = true
		return pending
	}
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, tm := range s.timers {
		if !tm.stopped && !tm.fired {
			out = append(out, tm)
		}
	}
	return out
}

// fire runs the oldest pending timer and reports whether there was one.
func (s *fakeScheduler) fire() bool {
	for _, tm := range s.timers {
		if !tm.stopped && !tm.fired {
			tm.fired = true
			tm.fn()
			return true
		}
	}
	return false
}

type fakeUploader struct {
	mu     sync.Mutex
	paths  []string
	result *tracker.UploadResult
	err    error
}

func (u *fakeUploader) Upload(_ context.Context, path string) (*tracker.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.paths = append(u.paths, path)
	return u.result, u.err
}

func (u *fakeUploader) calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.paths)
}

func raw(t *testing.T, v string) json.RawMessage {
	t.Helper()
	require.True(t, json.Valid([]byte(v)), "invalid json: %s", v)
	return json.RawMessage(v)
}
