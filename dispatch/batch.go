package dispatch

import (
	"context"
	"sync/atomic"

	"github.com/frstier/Marijany-Sticker-Print-sub001/device"
)

// Job is one queued label in a batch
type Job struct {
	Stream  string
	Printed bool
}

// Stop is a cooperative cancellation flag for a running batch. It is
// checked between items, never mid-transmission, so a request takes effect
// after the current job completes.
type Stop struct {
	flag atomic.Bool
}

// Request asks the batch to stop after the current item
func (s *Stop) Request() { s.flag.Store(true) }

// Requested reports whether a stop was requested
func (s *Stop) Requested() bool { return s.flag.Load() }

// BatchResult reports how far a batch got
type BatchResult struct {
	// Dispatched counts jobs the device accepted
	Dispatched int
	// FailedIndex is the zero-based position of the first failed job, or -1
	FailedIndex int
	// Stopped is true when the batch ended because of a stop request
	Stopped bool
}

// RunBatch dispatches jobs strictly one at a time, waiting for each result
// before sending the next, so the physical print order matches the queue
// order and the device never holds more than one in-flight job. The loop
// halts on the first failure: continuing past a dead printer would produce
// an inconsistently numbered physical run. Already printed items stand.
func (d *Dispatcher) RunBatch(ctx context.Context, dev device.Device, jobs []*Job, stop *Stop) BatchResult {
	result := BatchResult{FailedIndex: -1}

	for i, job := range jobs {
		if stop != nil && stop.Requested() {
			result.Stopped = true
			d.log.Info("Batch stopped by request", "completed", result.Dispatched, "total", len(jobs))
			return result
		}
		select {
		case <-ctx.Done():
			result.Stopped = true
			return result
		default:
		}

		if !d.Dispatch(ctx, dev, job.Stream) {
			result.FailedIndex = i
			d.log.Error("Batch halted at failed job", "index", i, "total", len(jobs))
			return result
		}
		job.Printed = true
		result.Dispatched++
	}
	return result
}
