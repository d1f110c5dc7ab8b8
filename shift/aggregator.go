// Package shift groups printed labels into bounded work sessions and
// produces a closing summary per session.
package shift

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frstier/Marijany-Sticker-Print-sub001/ledger"
)

var (
	// ErrShiftAlreadyOpen means Open was called while a shift is running
	ErrShiftAlreadyOpen = errors.New("a shift is already open")
	// ErrNoActiveShift means Close was called with no shift running
	ErrNoActiveShift = errors.New("no active shift")
)

// TopProductCount is how many products the closing summary ranks
const TopProductCount = 5

// DefaultRetention is how many closed shifts the history keeps
const DefaultRetention = 50

// ProductCount is one row of the top-products ranking
type ProductCount struct {
	ProductName string `json:"product_name"`
	Count       int    `json:"count"`
}

// Summary is computed when a shift closes
type Summary struct {
	Duration    time.Duration  `json:"duration"`
	PrintCount  int            `json:"print_count"`
	TotalWeight float64        `json:"total_weight"`
	TopProducts []ProductCount `json:"top_products"`
}

// Store is what the aggregator needs from the persistence layer
type Store interface {
	SaveShift(ctx context.Context, sh ledger.Shift) error
	PruneShifts(ctx context.Context, retain int) error
	ShiftHistory(ctx context.Context, limit int) ([]ledger.Shift, error)
}

// Logger is the minimal logging interface the shift package needs
type Logger interface {
	Error(msg string, context ...interface{})
	Warn(msg string, context ...interface{})
	Info(msg string, context ...interface{})
	Debug(msg string, context ...interface{})
}

type nullLogger struct{}

func (nullLogger) Error(msg string, context ...interface{}) {}
func (nullLogger) Warn(msg string, context ...interface{})  {}
func (nullLogger) Info(msg string, context ...interface{})  {}
func (nullLogger) Debug(msg string, context ...interface{}) {}

// Aggregator runs the per-terminal shift state machine: Closed → Open →
// Closed. At most one shift is open at a time.
type Aggregator struct {
	mu        sync.Mutex
	store     Store
	current   *ledger.Shift
	Retention int
	log       Logger
	now       func() time.Time // swappable for tests
}

// NewAggregator creates an Aggregator persisting through store
func NewAggregator(store Store, log Logger) *Aggregator {
	if log == nil {
		log = nullLogger{}
	}
	return &Aggregator{
		store:     store,
		Retention: DefaultRetention,
		log:       log,
		now:       time.Now,
	}
}

// Open starts a new shift for the given user. Fails with
// ErrShiftAlreadyOpen when one is running.
func (a *Aggregator) Open(ctx context.Context, userID string) (ledger.Shift, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current != nil {
		return ledger.Shift{}, ErrShiftAlreadyOpen
	}

	sh := ledger.Shift{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: a.now(),
	}
	a.current = &sh

	if a.store != nil {
		if err := a.store.SaveShift(ctx, sh); err != nil {
			a.log.Warn("Failed to persist opened shift", "shift", sh.ID, "error", err)
		}
	}
	a.log.Info("Shift opened", "shift", sh.ID, "user", userID)
	return sh, nil
}

// Current returns a copy of the open shift, or false when none is open
func (a *Aggregator) Current() (ledger.Shift, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current == nil {
		return ledger.Shift{}, false
	}
	return *a.current, true
}

// AddPrint attributes a print to the open shift. With no shift open it
// logs a warning and does nothing: the print itself already succeeded
// upstream, it simply goes unattributed.
func (a *Aggregator) AddPrint(record ledger.PrintRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		a.log.Warn("Print not attributed: no shift is open",
			"product", record.ProductName, "serial", record.SerialNumber)
		return
	}

	record.ShiftID = a.current.ID
	a.current.Prints = append(a.current.Prints, record)
	a.current.PrintCount++
	a.current.TotalWeight += record.Weight
}

// Close seals the open shift, computes its summary, moves it into the
// bounded history and returns both. Fails with ErrNoActiveShift when no
// shift is open. A closed shift is immutable.
func (a *Aggregator) Close(ctx context.Context) (ledger.Shift, Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return ledger.Shift{}, Summary{}, ErrNoActiveShift
	}

	sh := *a.current
	end := a.now()
	sh.EndTime = &end
	a.current = nil

	summary := Summary{
		Duration:    end.Sub(sh.StartTime),
		PrintCount:  sh.PrintCount,
		TotalWeight: sh.TotalWeight,
		TopProducts: topProducts(sh.Prints, TopProductCount),
	}

	if a.store != nil {
		if err := a.store.SaveShift(ctx, sh); err != nil {
			a.log.Error("Failed to persist closed shift", "shift", sh.ID, "error", err)
		}
		if err := a.store.PruneShifts(ctx, a.Retention); err != nil {
			a.log.Warn("Failed to prune shift history", "error", err)
		}
	}

	a.log.Info("Shift closed", "shift", sh.ID,
		"prints", summary.PrintCount, "weight", summary.TotalWeight)
	return sh, summary, nil
}

// History returns closed shifts, newest first
func (a *Aggregator) History(ctx context.Context, limit int) ([]ledger.Shift, error) {
	if a.store == nil {
		return nil, nil
	}
	return a.store.ShiftHistory(ctx, limit)
}

// topProducts ranks products by print count, descending. Ties break by
// name so the ranking is stable.
func topProducts(prints []ledger.PrintRecord, n int) []ProductCount {
	counts := make(map[string]int)
	for _, pr := range prints {
		counts[pr.ProductName]++
	}

	ranked := make([]ProductCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, ProductCount{ProductName: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].ProductName < ranked[j].ProductName
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
