// Package device enumerates physical label printers across the transports a
// factory terminal can reach them by, and selects the one a print job goes to.
package device

import (
	"context"
	"errors"
	"time"
)

// Connection tags the transport class a device was discovered through
type Connection string

const (
	// ConnectionNetwork is a printer reachable over raw TCP (port 9100)
	ConnectionNetwork Connection = "network"
	// ConnectionMDNS is a printer advertised via mDNS/DNS-SD
	ConnectionMDNS Connection = "mdns"
	// ConnectionSerial is a printer attached to a local serial/USB port
	ConnectionSerial Connection = "serial"
)

var (
	// ErrTransportUnavailable means the transport layer never became ready
	// within the bounded polling window
	ErrTransportUnavailable = errors.New("transport unavailable")
	// ErrNoDefaultDevice means the transport layer has no configured default
	ErrNoDefaultDevice = errors.New("no default device configured")
)

// Device describes one reachable printer. Records are transient: every
// discovery scan rebuilds them. The selected device is persisted by the
// caller, not here.
type Device struct {
	// UID is unique across all transports (serial number when the device
	// reports one, otherwise a transport-scoped address)
	UID        string     `json:"uid"`
	Name       string     `json:"name"`
	DeviceType string     `json:"device_type"`
	Connection Connection `json:"connection"`
	// Address is what the dispatcher re-hydrates into a live handle:
	// host:port for network devices, the port path for serial ones
	Address string `json:"address"`
}

// Transport is one discovery/communication channel for printers
type Transport interface {
	Class() Connection
	// Ready reports whether the transport can be used right now
	Ready(ctx context.Context) bool
	// Enumerate scans the transport and returns every reachable printer
	Enumerate(ctx context.Context) ([]Device, error)
}

// Logger is the minimal logging interface the device package needs
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
