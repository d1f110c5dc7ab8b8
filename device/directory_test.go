package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeTransport struct {
	class      Connection
	ready      bool
	devices    []Device
	enumErr    error
	enumCalls  int
	readyCalls int
}

func (f *fakeTransport) Class() Connection { return f.class }

func (f *fakeTransport) Ready(ctx context.Context) bool {
	f.readyCalls++
	return f.ready
}

func (f *fakeTransport) Enumerate(ctx context.Context) ([]Device, error) {
	f.enumCalls++
	return f.devices, f.enumErr
}

func fastDirectory(transports ...Transport) *Directory {
	d := NewDirectory(transports, nil)
	d.ReadyTimeout = 50 * time.Millisecond
	d.ReadyPoll = 5 * time.Millisecond
	return d
}

func TestDiscoverAllMergesAndDeduplicates(t *testing.T) {
	net := &fakeTransport{class: ConnectionNetwork, ready: true, devices: []Device{
		{UID: "PRN-A", Name: "Zebra A", Connection: ConnectionNetwork},
		{UID: "PRN-B", Name: "Zebra B", Connection: ConnectionNetwork},
	}}
	mdns := &fakeTransport{class: ConnectionMDNS, ready: true, devices: []Device{
		// same physical device reachable over a second transport
		{UID: "PRN-A", Name: "Zebra A", Connection: ConnectionMDNS},
		{UID: "PRN-C", Name: "Zebra C", Connection: ConnectionMDNS},
	}}

	devices, err := fastDirectory(net, mdns).DiscoverAll(context.Background())
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("expected 3 devices, got %d: %+v", len(devices), devices)
	}
	// first-seen transport tag wins
	if devices[0].UID != "PRN-A" || devices[0].Connection != ConnectionNetwork {
		t.Errorf("expected PRN-A tagged network first, got %+v", devices[0])
	}
}

func TestDiscoverAllSkipsUnreadyTransport(t *testing.T) {
	up := &fakeTransport{class: ConnectionNetwork, ready: true, devices: []Device{{UID: "X"}}}
	down := &fakeTransport{class: ConnectionSerial, ready: false}

	devices, err := fastDirectory(up, down).DiscoverAll(context.Background())
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("expected 1 device, got %d", len(devices))
	}
	if down.enumCalls != 0 {
		t.Errorf("unready transport must not be enumerated")
	}
}

func TestDiscoverAllTransportUnavailable(t *testing.T) {
	down := &fakeTransport{class: ConnectionNetwork, ready: false}

	_, err := fastDirectory(down).DiscoverAll(context.Background())
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
	if down.readyCalls < 2 {
		t.Errorf("expected bounded polling with retries, got %d ready checks", down.readyCalls)
	}
}

func TestAwaitReadyTimesOut(t *testing.T) {
	down := &fakeTransport{class: ConnectionSerial, ready: false}
	d := fastDirectory(down)

	start := time.Now()
	err := d.AwaitReady(context.Background(), ConnectionSerial)
	if !errors.Is(err, ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("readiness wait must respect its bounded window")
	}
}

func TestDiscoverDefault(t *testing.T) {
	tr := &fakeTransport{class: ConnectionNetwork, ready: true, devices: []Device{
		{UID: "PRN-A"}, {UID: "PRN-B"},
	}}

	d := fastDirectory(tr)
	// no default configured is a distinct error from transport failure
	if _, err := d.DiscoverDefault(context.Background()); !errors.Is(err, ErrNoDefaultDevice) {
		t.Fatalf("expected ErrNoDefaultDevice, got %v", err)
	}

	d.DefaultUID = "PRN-B"
	dev, err := d.DiscoverDefault(context.Background())
	if err != nil {
		t.Fatalf("discover default failed: %v", err)
	}
	if dev.UID != "PRN-B" {
		t.Errorf("expected PRN-B, got %+v", dev)
	}

	d.DefaultUID = "PRN-GONE"
	if _, err := d.DiscoverDefault(context.Background()); !errors.Is(err, ErrNoDefaultDevice) {
		t.Fatalf("expected ErrNoDefaultDevice for unknown UID, got %v", err)
	}
}

func TestDiscoverDefaultTransportDown(t *testing.T) {
	down := &fakeTransport{class: ConnectionNetwork, ready: false}
	d := fastDirectory(down)
	d.DefaultUID = "PRN-A"

	if _, err := d.DiscoverDefault(context.Background()); !errors.Is(err, ErrTransportUnavailable) {
		t.Fatalf("expected ErrTransportUnavailable, got %v", err)
	}
}
