// Package ledger maintains the durable per-product serial counter map, the
// print-record history used for duplicate detection, and the bounded shift
// history log. Several terminals may share one backing store; convergence
// between them is last-writer-wins at whole-map granularity (see Feed).
package ledger

import (
	"errors"
	"time"
)

var (
	// ErrInvalidOverride means a counter override below the minimum of 1
	ErrInvalidOverride = errors.New("serial counter override must be at least 1")
)

// Print statuses
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// PrintRecord captures one label submission. Records are created at
// submission time and immutable afterward. productId+serialNumber
// uniqueness is a soft invariant: duplicates are flagged by FindDuplicate,
// never rejected.
type PrintRecord struct {
	ID           int64     `json:"id,omitempty"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	SerialNumber uint64    `json:"serial_number"`
	Weight       float64   `json:"weight"`
	Date         string    `json:"date"`
	ShiftID      string    `json:"shift_id,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Shift is one bounded work session. Created on open, mutated by the
// aggregator while open, sealed once EndTime is set.
type Shift struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Prints      []PrintRecord `json:"prints,omitempty"`
	PrintCount  int           `json:"print_count"`
	TotalWeight float64       `json:"total_weight"`
}

// Logger is the minimal logging interface the ledger package needs
type Logger interface {
	Error(msg string, context ...interface{})
	Warn(msg string, context ...interface{})
	Info(msg string, context ...interface{})
	Debug(msg string, context ...interface{})
	WarnRateLimited(key string, interval time.Duration, msg string, context ...interface{})
}

type nullLogger struct{}

func (nullLogger) Error(msg string, context ...interface{}) {}
func (nullLogger) Warn(msg string, context ...interface{})  {}
func (nullLogger) Info(msg string, context ...interface{})  {}
func (nullLogger) Debug(msg string, context ...interface{}) {}
func (nullLogger) WarnRateLimited(key string, interval time.Duration, msg string, context ...interface{}) {
}
