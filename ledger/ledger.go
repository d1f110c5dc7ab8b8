package ledger

import (
	"context"
	"sync"
	"time"
)

// Ledger hands out serial numbers per product and tracks printed labels.
//
// Allocate is a plain read-modify-write: two terminals allocating for the
// same product at nearly the same moment can both observe the same
// pre-increment value before either write propagates. The feed converges
// them last-writer-wins afterwards, so one of the two allocations can be
// lost. This matches the guarantee the persistence backend actually gives;
// callers that need proof of uniqueness use FindDuplicate as an advisory
// pre-print check.
type Ledger struct {
	mu       sync.Mutex
	store    *Store
	counters map[string]uint64
	initial  uint64
	origin   string
	feed     Feed
	log      Logger
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewLedger loads the counter map from the store. initial is the first
// serial handed out for a product with no counter yet; origin identifies
// this writer on the change feed.
func NewLedger(store *Store, initial uint64, origin string, log Logger) (*Ledger, error) {
	if log == nil {
		log = nullLogger{}
	}
	if initial < 1 {
		initial = 1
	}

	counters, err := store.Counters(context.Background())
	if err != nil {
		return nil, err
	}

	return &Ledger{
		store:    store,
		counters: counters,
		initial:  initial,
		origin:   origin,
		log:      log,
		done:     make(chan struct{}),
	}, nil
}

// AttachFeed subscribes the ledger to peer updates and starts publishing
// its own. Call at most once.
func (l *Ledger) AttachFeed(feed Feed) {
	l.mu.Lock()
	l.feed = feed
	l.mu.Unlock()

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		for {
			select {
			case <-l.done:
				return
			case snap, ok := <-feed.Updates():
				if !ok {
					return
				}
				l.applySnapshot(snap)
			}
		}
	}()
}

// Peek returns the serial the next Allocate would hand out, without
// mutating anything.
func (l *Ledger) Peek(productID string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.peekLocked(productID)
}

func (l *Ledger) peekLocked(productID string) uint64 {
	if next, ok := l.counters[productID]; ok {
		return next
	}
	return l.initial
}

// Allocate returns the current serial for the product and advances the
// stored counter by one.
func (l *Ledger) Allocate(ctx context.Context, productID string) (uint64, error) {
	l.mu.Lock()
	serial := l.peekLocked(productID)
	l.counters[productID] = serial + 1
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if err := l.store.SetCounter(ctx, productID, serial+1); err != nil {
		return serial, err
	}
	l.publish(snap)
	return serial, nil
}

// Override sets the counter directly, e.g. to restart numbering after a
// roll change. Values below 1 are rejected with ErrInvalidOverride.
func (l *Ledger) Override(ctx context.Context, productID string, value uint64) error {
	if value < 1 {
		return ErrInvalidOverride
	}

	l.mu.Lock()
	l.counters[productID] = value
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if err := l.store.SetCounter(ctx, productID, value); err != nil {
		return err
	}
	l.log.Info("Serial counter overridden", "product", productID, "value", value)
	l.publish(snap)
	return nil
}

// FindDuplicate scans recorded prints for an exact match on serial number,
// product name and date. A hit is an advisory warning for the operator,
// never a hard constraint.
func (l *Ledger) FindDuplicate(ctx context.Context, serialNumber uint64, productName, date string) (*PrintRecord, error) {
	return l.store.FindPrint(ctx, serialNumber, productName, date)
}

// Record stores a print record in the history
func (l *Ledger) Record(ctx context.Context, pr PrintRecord) (int64, error) {
	return l.store.InsertPrint(ctx, pr)
}

// Snapshot returns a copy of the current counter map tagged with this
// writer's origin.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	counters := make(map[string]uint64, len(l.counters))
	for k, v := range l.counters {
		counters[k] = v
	}
	return Snapshot{Origin: l.origin, At: time.Now().UTC(), Counters: counters}
}

// applySnapshot replaces the in-memory counter map wholesale with a peer's
// snapshot and persists it. There is no per-key merge: the incoming map is
// the new truth.
func (l *Ledger) applySnapshot(snap Snapshot) {
	if snap.Origin == l.origin {
		return
	}

	l.mu.Lock()
	l.counters = make(map[string]uint64, len(snap.Counters))
	for k, v := range snap.Counters {
		l.counters[k] = v
	}
	l.mu.Unlock()

	if err := l.store.ReplaceCounters(context.Background(), snap.Counters); err != nil {
		l.log.Error("Failed to persist peer counter snapshot", "origin", snap.Origin, "error", err)
		return
	}
	l.log.Debug("Applied peer counter snapshot", "origin", snap.Origin, "products", len(snap.Counters))
}

func (l *Ledger) publish(snap Snapshot) {
	l.mu.Lock()
	feed := l.feed
	l.mu.Unlock()
	if feed == nil {
		return
	}
	if err := feed.Publish(snap); err != nil {
		l.log.WarnRateLimited("feed-publish", time.Minute,
			"Failed to publish counter snapshot", "error", err)
	}
}

// Close stops the feed consumer. The store is owned by the caller and is
// not closed here.
func (l *Ledger) Close() {
	close(l.done)
	l.wg.Wait()
}
