package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/epicevents/crm/internal/core/domain"
)

type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
	err     error
}

func (m *memAudit) Append(_ context.Context, e domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

type depthRecorder struct {
	mu    sync.Mutex
	calls int
}

func (d *depthRecorder) ObserveAuditDepth(int, int) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
}

func TestDispatcher_PreservesPerEntityOrder(t *testing.T) {
	repo := &memAudit{}
	d := NewDispatcher(3, repo, nil, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 50; i++ {
		for _, id := range []string{"a", "b", "c"} {
			d.Record(domain.AuditEntry{EntityID: id, ActorID: fmt.Sprint(i)})
		}
	}
	d.Close()

	if len(repo.entries) != 150 {
		t.Fatalf("expected 150 entries, got %d", len(repo.entries))
	}
	next := map[string]int{}
	for _, e := range repo.entries {
		if e.ActorID != fmt.Sprint(next[e.EntityID]) {
			t.Fatalf("entity %s out of order: got %s, want %d", e.EntityID, e.ActorID, next[e.EntityID])
		}
		next[e.EntityID]++
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &memAudit{}, nil, zerolog.Nop())
	for _, id := range []string{"x", "client-42", ""} {
		first := d.shardIndex(id)
		if first < 0 || first >= 8 {
			t.Fatalf("shard %d out of range", first)
		}
		if d.shardIndex(id) != first {
			t.Fatalf("shard for %q changed", id)
		}
	}
}

func TestDispatcher_WriteFailuresAreSwallowed(t *testing.T) {
	repo := &memAudit{err: errors.New("db down")}
	depth := &depthRecorder{}
	d := NewDispatcher(1, repo, depth, zerolog.Nop())
	d.Start(context.Background())

	d.Record(domain.AuditEntry{EntityID: "a"})
	d.Close()

	// Recorded after close: dropped, no panic.
	d.Record(domain.AuditEntry{EntityID: "a"})
	d.Close()

	if depth.calls == 0 {
		t.Fatalf("expected depth to be observed")
	}
}

func TestDispatcher_DefaultsWorkers(t *testing.T) {
	d := NewDispatcher(0, &memAudit{}, nil, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}
