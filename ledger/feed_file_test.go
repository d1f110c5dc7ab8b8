package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFeedDeliversPeerSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")

	a, err := NewFileFeed(path, "terminal-a", nil)
	require.NoError(t, err)
	defer a.Close()

	b, err := NewFileFeed(path, "terminal-b", nil)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, a.Publish(Snapshot{
		At:       time.Now().UTC(),
		Counters: map[string]uint64{"LV-01": 7},
	}))

	select {
	case snap := <-b.Updates():
		assert.Equal(t, "terminal-a", snap.Origin)
		assert.Equal(t, uint64(7), snap.Counters["LV-01"])
	case <-time.After(3 * time.Second):
		t.Fatal("peer snapshot never arrived")
	}
}

func TestFileFeedIgnoresOwnSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counters.json")

	f, err := NewFileFeed(path, "terminal-a", nil)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, f.Publish(Snapshot{Counters: map[string]uint64{"X": 1}}))

	select {
	case snap := <-f.Updates():
		t.Fatalf("feed echoed its own snapshot: %+v", snap)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestMemoryHubBroadcast(t *testing.T) {
	hub := NewMemoryHub()
	a := hub.Join("a")
	b := hub.Join("b")
	c := hub.Join("c")
	defer a.Close()
	defer b.Close()
	defer c.Close()

	require.NoError(t, a.Publish(Snapshot{Counters: map[string]uint64{"P": 3}}))

	for name, member := range map[string]Feed{"b": b, "c": c} {
		select {
		case snap := <-member.Updates():
			assert.Equal(t, "a", snap.Origin, "member %s", name)
			assert.Equal(t, uint64(3), snap.Counters["P"], "member %s", name)
		case <-time.After(time.Second):
			t.Fatalf("member %s never received the broadcast", name)
		}
	}

	select {
	case snap := <-a.Updates():
		t.Fatalf("publisher received its own snapshot: %+v", snap)
	default:
	}
}
