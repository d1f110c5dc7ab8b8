package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSFeed synchronizes writers on different machines through a websocket
// hub. Every message on the hub is a JSON Snapshot; the hub relays each
// message to all connected terminals.
type WSFeed struct {
	hubURL  string
	origin  string
	updates chan Snapshot
	log     Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup

	reconnectDelay    time.Duration
	maxReconnectDelay time.Duration
	writeTimeout      time.Duration
	handshakeTimeout  time.Duration
}

// NewWSFeed connects to the hub and starts the read loop. The connection
// is retried in the background with growing delay, so a hub restart does
// not take the terminal down.
func NewWSFeed(hubURL, origin string, log Logger) *WSFeed {
	if log == nil {
		log = nullLogger{}
	}
	f := &WSFeed{
		hubURL:            hubURL,
		origin:            origin,
		updates:           make(chan Snapshot, 16),
		log:               log,
		done:              make(chan struct{}),
		reconnectDelay:    5 * time.Second,
		maxReconnectDelay: 2 * time.Minute,
		writeTimeout:      10 * time.Second,
		handshakeTimeout:  10 * time.Second,
	}
	f.wg.Add(1)
	go f.run()
	return f
}

func (f *WSFeed) run() {
	defer f.wg.Done()
	delay := f.reconnectDelay

	for {
		select {
		case <-f.done:
			return
		default:
		}

		conn, err := f.dial()
		if err != nil {
			f.log.WarnRateLimited("ws-feed-dial", time.Minute,
				"Feed hub unreachable, will retry", "url", f.hubURL, "error", err)
			select {
			case <-f.done:
				return
			case <-time.After(delay):
			}
			if delay *= 2; delay > f.maxReconnectDelay {
				delay = f.maxReconnectDelay
			}
			continue
		}

		f.mu.Lock()
		f.conn = conn
		f.mu.Unlock()
		f.log.Info("Connected to ledger feed hub", "url", f.hubURL)
		delay = f.reconnectDelay

		f.readLoop(conn)

		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
		conn.Close()
	}
}

func (f *WSFeed) dial() (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: f.handshakeTimeout}
	conn, _, err := dialer.Dial(f.hubURL, nil)
	return conn, err
}

func (f *WSFeed) readLoop(conn *websocket.Conn) {
	for {
		var snap Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			select {
			case <-f.done:
			default:
				f.log.Debug("Feed hub connection lost", "error", err)
			}
			return
		}
		if snap.Origin == f.origin {
			continue
		}
		select {
		case f.updates <- snap:
		case <-f.done:
			return
		default:
			// slow consumer; the next snapshot supersedes this one
		}
	}
}

// Publish sends this writer's snapshot to the hub. Returns an error while
// disconnected; the caller treats publishes as best effort.
func (f *WSFeed) Publish(snap Snapshot) error {
	snap.Origin = f.origin

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return errors.New("feed hub not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.writeTimeout))
	return f.conn.WriteJSON(snap)
}

// Updates delivers peers' snapshots
func (f *WSFeed) Updates() <-chan Snapshot { return f.updates }

// Close disconnects from the hub and closes the updates channel
func (f *WSFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	close(f.done)
	conn := f.conn
	f.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	f.wg.Wait()
	close(f.updates)
	return nil
}
