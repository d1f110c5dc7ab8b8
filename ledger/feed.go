package ledger

import (
	"sync"
	"time"
)

// Snapshot is one writer's view of the whole counter map. Feeds carry
// snapshots, not per-key deltas: a receiver replaces its map wholesale,
// which makes convergence last-writer-wins at map granularity.
type Snapshot struct {
	Origin   string            `json:"origin"`
	At       time.Time         `json:"at"`
	Counters map[string]uint64 `json:"counters"`
}

func (s Snapshot) clone() Snapshot {
	counters := make(map[string]uint64, len(s.Counters))
	for k, v := range s.Counters {
		counters[k] = v
	}
	return Snapshot{Origin: s.Origin, At: s.At, Counters: counters}
}

// Feed is the cross-writer change notification channel. Publish announces
// this writer's state; Updates delivers peers' snapshots.
type Feed interface {
	Publish(snap Snapshot) error
	Updates() <-chan Snapshot
	Close() error
}

// MemoryHub connects ledgers running in the same process, primarily for
// tests and for several UI tabs backed by one engine instance.
type MemoryHub struct {
	mu      sync.Mutex
	members []*memoryFeed
}

// NewMemoryHub creates an empty in-process hub
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{}
}

// Join adds a member feed identified by origin
func (h *MemoryHub) Join(origin string) Feed {
	h.mu.Lock()
	defer h.mu.Unlock()
	f := &memoryFeed{
		hub:     h,
		origin:  origin,
		updates: make(chan Snapshot, 16),
	}
	h.members = append(h.members, f)
	return f
}

func (h *MemoryHub) broadcast(snap Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.members {
		if m.closed || m.origin == snap.Origin {
			continue
		}
		select {
		case m.updates <- snap.clone():
		default:
			// a stalled receiver drops updates; the next snapshot
			// supersedes anything it missed
		}
	}
}

type memoryFeed struct {
	hub     *MemoryHub
	origin  string
	updates chan Snapshot
	closed  bool
}

func (f *memoryFeed) Publish(snap Snapshot) error {
	snap.Origin = f.origin
	f.hub.broadcast(snap)
	return nil
}

func (f *memoryFeed) Updates() <-chan Snapshot { return f.updates }

func (f *memoryFeed) Close() error {
	f.hub.mu.Lock()
	defer f.hub.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.updates)
	}
	return nil
}
