package application

import (
	"context"
	"sync"
	"time"

	"moderation-gateway/relay/domain"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []domain.LogEntry
}

func (n *recordingNotifier) Notify(e domain.LogEntry) {
	n.mu.Lock()
	n.entries = append(n.entries, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) seen() []domain.LogEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.LogEntry(nil), n.entries...)
}

// failingLogStore simula disco indisponível.
type failingLogStore struct{ err error }

func (s failingLogStore) Append(context.Context, domain.LogEntry, int) (int, error) { return 0, s.err }
func (s failingLogStore) Entries(context.Context) ([]domain.LogEntry, error)       { return nil, nil }
func (s failingLogStore) ArchiveAll(context.Context) (int, error)                 { return 0, s.err }

type memQueue struct {
	mu   sync.Mutex
	rows map[domain.TenantKey][]domain.PendingAction
	err  error
}

func newMemQueue() *memQueue { return &memQueue{rows: map[domain.TenantKey][]domain.PendingAction{}} }

func (q *memQueue) Push(_ context.Context, t domain.TenantKey, a domain.PendingAction) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.rows[t] = append(q.rows[t], a)
	return nil
}

func (q *memQueue) Drain(_ context.Context, t domain.TenantKey) ([]domain.PendingAction, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.rows[t]
	delete(q.rows, t)
	return out, nil
}
