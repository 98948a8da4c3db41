// package testing contains shared testing utilities
package testing

import (
	"context"
	"sync"

	"github.com/jukebot/jukebot/internal/models"
)

// MockPlayer is a scripted test double for jukebox.Player. It records every
// call in order and serves configured state, queue, and per-method errors.
// Safe for concurrent use: the orchestrator issues batch enqueues in parallel.
type MockPlayer struct {
	mu sync.Mutex

	State    models.DeviceState
	StateErr error

	// Queue is served by GetQueue. When QueueAfterEnqueue is set, GetQueue
	// switches to it once Enqueue has been called, which lets tests exercise
	// the readiness poll.
	Queue             []models.QueueItem
	QueueErr          error
	QueueAfterEnqueue []models.QueueItem

	StopErr    error
	PlayErr    error
	FlushErr   error
	EnqueueErr error
	SeekErr    error
	SkipErr    error

	calls    []string
	enqueued []string
}

func (m *MockPlayer) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the ordered list of device calls made so far.
func (m *MockPlayer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Enqueued returns the URIs passed to Enqueue, in call order.
func (m *MockPlayer) Enqueued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.enqueued))
	copy(out, m.enqueued)
	return out
}

func (m *MockPlayer) GetState(ctx context.Context) (models.DeviceState, error) {
	m.record("getstate")
	return m.State, m.StateErr
}

func (m *MockPlayer) GetQueue(ctx context.Context) ([]models.QueueItem, error) {
	m.record("getqueue")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueueAfterEnqueue != nil && len(m.enqueued) > 0 {
		return m.QueueAfterEnqueue, m.QueueErr
	}
	return m.Queue, m.QueueErr
}

func (m *MockPlayer) Stop(ctx context.Context) error {
	m.record("stop")
	return m.StopErr
}

func (m *MockPlayer) Play(ctx context.Context) error {
	m.record("play")
	return m.PlayErr
}

func (m *MockPlayer) FlushQueue(ctx context.Context) error {
	m.record("flush")
	return m.FlushErr
}

func (m *MockPlayer) Enqueue(ctx context.Context, uri string) error {
	m.mu.Lock()
	m.calls = append(m.calls, "enqueue")
	if m.EnqueueErr == nil {
		m.enqueued = append(m.enqueued, uri)
	}
	err := m.EnqueueErr
	m.mu.Unlock()
	return err
}

func (m *MockPlayer) SeekToFirst(ctx context.Context) error {
	m.record("seek")
	return m.SeekErr
}

func (m *MockPlayer) SkipNext(ctx context.Context) error {
	m.record("skip")
	return m.SkipErr
}
