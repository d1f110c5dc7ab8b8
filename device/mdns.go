package device

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/grandcat/zeroconf"
)

// mDNS/DNS-SD service types advertised by network label printers
var mdnsServiceTypes = []string{"_pdl-datastream._tcp", "_printer._tcp", "_ipp._tcp"}

// MDNSTransport browses mDNS/DNS-SD for printers announcing themselves on
// the local segment.
type MDNSTransport struct {
	BrowseTimeout time.Duration
	log           Logger
	// newResolver is swappable for tests
	newResolver func() (resolver, error)
}

type resolver interface {
	Browse(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error
}

// NewMDNSTransport creates an mDNS browsing transport
func NewMDNSTransport(browseTimeout time.Duration, log Logger) *MDNSTransport {
	if log == nil {
		log = nullLogger{}
	}
	if browseTimeout <= 0 {
		browseTimeout = 3 * time.Second
	}
	return &MDNSTransport{
		BrowseTimeout: browseTimeout,
		log:           log,
		newResolver: func() (resolver, error) {
			return zeroconf.NewResolver(nil)
		},
	}
}

func (t *MDNSTransport) Class() Connection { return ConnectionMDNS }

// Ready reports whether an mDNS resolver can be created (multicast socket
// available)
func (t *MDNSTransport) Ready(ctx context.Context) bool {
	_, err := t.newResolver()
	return err == nil
}

// Enumerate browses each printer service type sequentially and collects the
// advertised IPv4 endpoints. Browsing runs until the per-type timeout.
func (t *MDNSTransport) Enumerate(ctx context.Context) ([]Device, error) {
	var devices []Device

	for _, svcType := range mdnsServiceTypes {
		r, err := t.newResolver()
		if err != nil {
			return devices, fmt.Errorf("mDNS resolver: %w", err)
		}

		browseCtx, cancel := context.WithTimeout(ctx, t.BrowseTimeout)
		entries := make(chan *zeroconf.ServiceEntry)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for e := range entries {
				for _, ip := range e.AddrIPv4 {
					addr := net.JoinHostPort(ip.String(), fmt.Sprintf("%d", e.Port))
					devices = append(devices, Device{
						UID:        "mdns:" + e.Instance,
						Name:       e.Instance,
						DeviceType: svcType,
						Connection: ConnectionMDNS,
						Address:    addr,
					})
				}
			}
		}()

		if err := r.Browse(browseCtx, svcType, "local.", entries); err != nil {
			cancel()
			t.log.Warn("mDNS browse failed", "service", svcType, "error", err)
			continue
		}
		<-browseCtx.Done()
		cancel()
		<-done
	}

	return devices, nil
}
