// Package dispatch transmits compiled command streams to a selected printer
// and reports per-job success or failure.
package dispatch

import (
	"context"
	"net"
	"time"

	"go.bug.st/serial"

	"github.com/frstier/Marijany-Sticker-Print-sub001/device"
)

// Logger is the minimal logging interface the dispatch package needs
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

// transmitter is a live, writable handle to a printer. Devices enumerated
// earlier are re-hydrated into one of these at dispatch time.
type transmitter interface {
	send(payload []byte) error
}

// Dispatcher sends command streams to printers one job at a time
type Dispatcher struct {
	dir *device.Directory
	// SendTimeout bounds a single transmission
	SendTimeout time.Duration
	// SerialBaudRate applies when the device is on a serial port
	SerialBaudRate int
	log            Logger
	// hydrate is swappable for tests
	hydrate func(dev device.Device) (transmitter, error)
}

// NewDispatcher creates a Dispatcher using the directory's readiness logic
func NewDispatcher(dir *device.Directory, log Logger) *Dispatcher {
	if log == nil {
		log = nullLogger{}
	}
	d := &Dispatcher{
		dir:            dir,
		SendTimeout:    10 * time.Second,
		SerialBaudRate: 9600,
		log:            log,
	}
	d.hydrate = d.openHandle
	return d
}

// Dispatch sends the command stream to the device as one atomic payload.
// It returns true when the device accepted the job and false on any
// transport or device failure; a false result is a normal outcome, never a
// panic or error, and retry policy stays with the caller.
func (d *Dispatcher) Dispatch(ctx context.Context, dev device.Device, stream string) bool {
	if d.dir != nil {
		if err := d.dir.AwaitReady(ctx, dev.Connection); err != nil {
			d.log.Error("Transport not ready for dispatch",
				"device", dev.UID, "transport", dev.Connection, "error", err)
			return false
		}
	}

	handle, err := d.hydrate(dev)
	if err != nil {
		d.log.Error("Could not open device for dispatch", "device", dev.UID, "error", err)
		return false
	}

	if err := handle.send([]byte(stream)); err != nil {
		d.log.Error("Transmission failed", "device", dev.UID, "error", err)
		return false
	}

	d.log.Info("Job dispatched", "device", dev.UID, "bytes", len(stream))
	return true
}

// openHandle re-hydrates an enumerated device into a transmissible handle
func (d *Dispatcher) openHandle(dev device.Device) (transmitter, error) {
	switch dev.Connection {
	case device.ConnectionSerial:
		return &serialHandle{port: dev.Address, baud: d.SerialBaudRate, timeout: d.SendTimeout}, nil
	default:
		// mDNS-discovered devices carry a host:port address and transmit
		// over TCP just like directly configured network printers
		return &tcpHandle{addr: dev.Address, timeout: d.SendTimeout}, nil
	}
}

type tcpHandle struct {
	addr    string
	timeout time.Duration
}

func (h *tcpHandle) send(payload []byte) error {
	conn, err := net.DialTimeout("tcp", h.addr, h.timeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(h.timeout))
	_, err = conn.Write(payload)
	return err
}

type serialHandle struct {
	port    string
	baud    int
	timeout time.Duration
}

func (h *serialHandle) send(payload []byte) error {
	mode := &serial.Mode{BaudRate: h.baud}
	port, err := serial.Open(h.port, mode)
	if err != nil {
		return err
	}
	defer port.Close()

	if _, err := port.Write(payload); err != nil {
		return err
	}
	// Drain makes the write atomic from the caller's point of view: the
	// payload has left the UART before we report success.
	return port.Drain()
}
