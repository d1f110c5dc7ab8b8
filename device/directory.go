package device

import (
	"context"
	"time"
)

// Directory enumerates printers across every registered transport and
// answers which device a job should go to.
type Directory struct {
	transports []Transport
	// DefaultUID pins the preferred printer; empty means no default
	DefaultUID   string
	ReadyTimeout time.Duration
	ReadyPoll    time.Duration
	log          Logger
}

// NewDirectory creates a Directory over the given transports
func NewDirectory(transports []Transport, log Logger) *Directory {
	if log == nil {
		log = nullLogger{}
	}
	return &Directory{
		transports:   transports,
		ReadyTimeout: 10 * time.Second,
		ReadyPoll:    250 * time.Millisecond,
		log:          log,
	}
}

// AwaitReady polls the transport for the given connection class at a fixed
// interval until it reports ready or the bounded window elapses. Returns
// ErrTransportUnavailable on timeout so callers never hang on a dead
// discovery service.
func (d *Directory) AwaitReady(ctx context.Context, class Connection) error {
	t, ok := d.transportFor(class)
	if !ok {
		return ErrTransportUnavailable
	}
	return awaitReady(ctx, t, d.ReadyPoll, d.ReadyTimeout)
}

func awaitReady(ctx context.Context, t Transport, poll, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if t.Ready(ctx) {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTransportUnavailable
		}
		select {
		case <-ctx.Done():
			return ErrTransportUnavailable
		case <-time.After(poll):
		}
	}
}

func (d *Directory) transportFor(class Connection) (Transport, bool) {
	for _, t := range d.transports {
		if t.Class() == class {
			return t, true
		}
	}
	return nil, false
}

// DiscoverAll scans every transport sequentially (parallel scans would
// overload the local discovery service) and merges the results. Devices
// are deduplicated by UID; the first transport to report a device wins.
// Fails with ErrTransportUnavailable only when no transport becomes ready.
func (d *Directory) DiscoverAll(ctx context.Context) ([]Device, error) {
	var devices []Device
	seen := make(map[string]bool)
	anyReady := false

	for _, t := range d.transports {
		if err := awaitReady(ctx, t, d.ReadyPoll, d.ReadyTimeout); err != nil {
			d.log.WarnRateLimited("transport-"+string(t.Class()), time.Minute,
				"Transport not ready, skipping", "transport", t.Class())
			continue
		}
		anyReady = true

		found, err := t.Enumerate(ctx)
		if err != nil {
			d.log.Warn("Transport enumeration failed", "transport", t.Class(), "error", err)
			continue
		}
		for _, dev := range found {
			if seen[dev.UID] {
				continue
			}
			seen[dev.UID] = true
			devices = append(devices, dev)
		}
	}

	if !anyReady {
		return nil, ErrTransportUnavailable
	}
	d.log.Debug("Discovery scan complete", "devices", len(devices))
	return devices, nil
}

// DiscoverDefault returns the configured default printer. The absence of a
// default is a distinct condition (ErrNoDefaultDevice) from the transport
// layer being down (ErrTransportUnavailable).
func (d *Directory) DiscoverDefault(ctx context.Context) (Device, error) {
	if d.DefaultUID == "" {
		return Device{}, ErrNoDefaultDevice
	}
	devices, err := d.DiscoverAll(ctx)
	if err != nil {
		return Device{}, err
	}
	for _, dev := range devices {
		if dev.UID == d.DefaultUID {
			return dev, nil
		}
	}
	return Device{}, ErrNoDefaultDevice
}
