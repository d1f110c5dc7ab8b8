package device

import (
	"context"
	"strings"

	"go.bug.st/serial"
)

// SerialTransport enumerates printers attached to local serial/USB ports.
// Port-level identity is all the OS exposes, so the port path doubles as
// the device UID.
type SerialTransport struct {
	log Logger
	// listPorts is swappable for tests
	listPorts func() ([]string, error)
}

// NewSerialTransport creates a serial/USB port transport
func NewSerialTransport(log Logger) *SerialTransport {
	if log == nil {
		log = nullLogger{}
	}
	return &SerialTransport{
		log:       log,
		listPorts: serial.GetPortsList,
	}
}

func (t *SerialTransport) Class() Connection { return ConnectionSerial }

// Ready reports whether the OS port enumeration service answers
func (t *SerialTransport) Ready(ctx context.Context) bool {
	_, err := t.listPorts()
	return err == nil
}

// Enumerate lists every serial port as a candidate printer. Virtual
// terminal ports are skipped.
func (t *SerialTransport) Enumerate(ctx context.Context) ([]Device, error) {
	ports, err := t.listPorts()
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, port := range ports {
		if strings.Contains(port, "ptmx") || strings.Contains(port, "tty.Bluetooth") {
			continue
		}
		devices = append(devices, Device{
			UID:        "serial:" + port,
			Name:       port,
			DeviceType: "serial-printer",
			Connection: ConnectionSerial,
			Address:    port,
		})
	}
	return devices, nil
}
