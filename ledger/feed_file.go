package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileFeed synchronizes writers that share a data directory but run in
// separate processes. Publish writes the snapshot to a JSON file; every
// peer watches that file and picks up foreign snapshots as they land.
type FileFeed struct {
	path    string
	origin  string
	watcher *fsnotify.Watcher
	updates chan Snapshot
	log     Logger

	mu     sync.Mutex
	closed bool
}

// NewFileFeed creates a file-based feed at path for the given origin
func NewFileFeed(path, origin string, log Logger) (*FileFeed, error) {
	if log == nil {
		log = nullLogger{}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create feed directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create feed watcher: %w", err)
	}
	// watch the directory, not the file: the atomic rename on publish
	// replaces the inode
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch feed directory: %w", err)
	}

	f := &FileFeed{
		path:    path,
		origin:  origin,
		watcher: watcher,
		updates: make(chan Snapshot, 16),
		log:     log,
	}
	go f.watchLoop()
	return f, nil
}

func (f *FileFeed) watchLoop() {
	for {
		select {
		case event, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if event.Name != f.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			f.deliver()
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			f.log.Warn("Feed watcher error", "error", err)
		}
	}
}

func (f *FileFeed) deliver() {
	snap, err := f.read()
	if err != nil {
		f.log.Debug("Unreadable feed snapshot, skipping", "error", err)
		return
	}
	if snap.Origin == f.origin {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.updates <- snap:
	default:
		// slow consumer; the next snapshot supersedes this one
	}
}

func (f *FileFeed) read() (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Publish writes the snapshot atomically (temp file + rename) so a peer
// never reads a half-written map.
func (f *FileFeed) Publish(snap Snapshot) error {
	snap.Origin = f.origin
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Updates delivers peers' snapshots
func (f *FileFeed) Updates() <-chan Snapshot { return f.updates }

// Close stops watching and closes the updates channel
func (f *FileFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	err := f.watcher.Close()
	f.mu.Lock()
	close(f.updates)
	f.mu.Unlock()
	return err
}
