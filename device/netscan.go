package device

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"
)

// Standard printer MIB OIDs used to identify a device
const (
	oidSysDescr      = "1.3.6.1.2.1.1.1.0"
	oidSysName       = "1.3.6.1.2.1.1.5.0"
	oidSerialNumber  = "1.3.6.1.2.1.43.5.1.1.17.1"
	rawPrintPort     = "9100"
	defaultSNMPRetry = 1
)

// NetworkTransport probes a configured list of hosts over raw TCP and
// queries SNMP for device identity. Hosts may be bare addresses or
// host:port pairs; bare addresses get the raw print port.
type NetworkTransport struct {
	Hosts        []string
	ProbeTimeout time.Duration
	Community    string
	log          Logger
}

// NewNetworkTransport creates a network transport for the given host list
func NewNetworkTransport(hosts []string, probeTimeout time.Duration, community string, log Logger) *NetworkTransport {
	if log == nil {
		log = nullLogger{}
	}
	if probeTimeout <= 0 {
		probeTimeout = 2 * time.Second
	}
	if community == "" {
		community = "public"
	}
	return &NetworkTransport{
		Hosts:        hosts,
		ProbeTimeout: probeTimeout,
		Community:    community,
		log:          log,
	}
}

func (t *NetworkTransport) Class() Connection { return ConnectionNetwork }

// Ready reports whether the local network stack can open sockets at all
func (t *NetworkTransport) Ready(ctx context.Context) bool {
	// binding an ephemeral UDP port is enough to prove the stack is up
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Enumerate probes each configured host in turn. Hosts that do not answer
// on the raw print port within the probe timeout are skipped.
func (t *NetworkTransport) Enumerate(ctx context.Context) ([]Device, error) {
	var devices []Device
	for _, host := range t.Hosts {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		addr := host
		if !strings.Contains(addr, ":") {
			addr = net.JoinHostPort(addr, rawPrintPort)
		}

		conn, err := net.DialTimeout("tcp", addr, t.ProbeTimeout)
		if err != nil {
			t.log.Debug("Network printer probe failed", "addr", addr, "error", err)
			continue
		}
		conn.Close()

		dev := Device{
			UID:        "net:" + addr,
			Name:       host,
			DeviceType: "label-printer",
			Connection: ConnectionNetwork,
			Address:    addr,
		}
		t.identify(addr, &dev)
		devices = append(devices, dev)
	}
	return devices, nil
}

// identify fills in name, type and a stable UID from the device's SNMP
// agent. Best effort: a printer with SNMP disabled keeps its address UID.
func (t *NetworkTransport) identify(addr string, dev *Device) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	client := &gosnmp.GoSNMP{
		Target:    host,
		Port:      161,
		Community: t.Community,
		Version:   gosnmp.Version2c,
		Timeout:   t.ProbeTimeout,
		Retries:   defaultSNMPRetry,
	}
	if err := client.Connect(); err != nil {
		t.log.Debug("SNMP connect failed", "host", host, "error", err)
		return
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{oidSysName, oidSysDescr, oidSerialNumber})
	if err != nil {
		t.log.Debug("SNMP identity query failed", "host", host, "error", err)
		return
	}

	for _, v := range result.Variables {
		text := snmpString(v)
		if text == "" {
			continue
		}
		switch v.Name {
		case "." + oidSysName:
			dev.Name = text
		case "." + oidSysDescr:
			dev.DeviceType = text
		case "." + oidSerialNumber:
			dev.UID = text
		}
	}
}

func snmpString(v gosnmp.SnmpPDU) string {
	switch val := v.Value.(type) {
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	default:
		if val == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}
