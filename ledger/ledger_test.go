package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLedger(t *testing.T, initial uint64, origin string) *Ledger {
	t.Helper()
	store, err := NewStore("")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	led, err := NewLedger(store, initial, origin, nil)
	require.NoError(t, err)
	t.Cleanup(led.Close)
	return led
}

func TestAllocateSequence(t *testing.T) {
	led := testLedger(t, 100, "t1")
	ctx := context.Background()

	for want := uint64(100); want <= 102; want++ {
		got, err := led.Allocate(ctx, "LV-01")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, uint64(103), led.Peek("LV-01"))
}

func TestPeekDoesNotMutate(t *testing.T) {
	led := testLedger(t, 1, "t1")
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint64(1), led.Peek("KV-02"))
	}
}

func TestCountersAreIndependentPerProduct(t *testing.T) {
	led := testLedger(t, 1, "t1")
	ctx := context.Background()

	first, err := led.Allocate(ctx, "A")
	require.NoError(t, err)
	second, err := led.Allocate(ctx, "A")
	require.NoError(t, err)
	other, err := led.Allocate(ctx, "B")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, uint64(1), other)
}

func TestOverride(t *testing.T) {
	led := testLedger(t, 1, "t1")
	ctx := context.Background()

	_, err := led.Allocate(ctx, "LV-01")
	require.NoError(t, err)

	// manual override may lower the counter
	require.NoError(t, led.Override(ctx, "LV-01", 1))
	got, err := led.Allocate(ctx, "LV-01")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got)

	assert.ErrorIs(t, led.Override(ctx, "LV-01", 0), ErrInvalidOverride)
}

func TestFindDuplicate(t *testing.T) {
	led := testLedger(t, 1, "t1")
	ctx := context.Background()

	_, err := led.Record(ctx, PrintRecord{
		ProductID:    "LV-01",
		ProductName:  "Довге волокно",
		SerialNumber: 105,
		Date:         "01.02.2025",
	})
	require.NoError(t, err)

	dup, err := led.FindDuplicate(ctx, 105, "Довге волокно", "01.02.2025")
	require.NoError(t, err)
	require.NotNil(t, dup)

	miss, err := led.FindDuplicate(ctx, 105, "Довге волокно", "03.02.2025")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestFeedSnapshotReplacesMapWholesale(t *testing.T) {
	hub := NewMemoryHub()
	a := testLedger(t, 1, "terminal-a")
	b := testLedger(t, 1, "terminal-b")

	ctx := context.Background()

	// b has a counter a's snapshot will not carry; allocated before the
	// feeds attach so it is never published
	_, err := b.Allocate(ctx, "ONLY-B")
	require.NoError(t, err)

	a.AttachFeed(hub.Join("terminal-a"))
	b.AttachFeed(hub.Join("terminal-b"))

	_, err = a.Allocate(ctx, "LV-01")
	require.NoError(t, err)

	// b converges to a's whole map: LV-01 appears, ONLY-B is dropped
	require.Eventually(t, func() bool {
		return b.Peek("LV-01") == 2 && b.Peek("ONLY-B") == 1
	}, 2*time.Second, 10*time.Millisecond,
		"peer snapshot must replace the map wholesale")

	snap := b.Snapshot()
	assert.Equal(t, "terminal-b", snap.Origin)
	assert.NotContains(t, snap.Counters, "ONLY-B")
}

func TestOwnSnapshotIgnored(t *testing.T) {
	led := testLedger(t, 1, "self")
	feed := NewMemoryHub().Join("self")
	led.AttachFeed(feed)

	_, err := led.Allocate(context.Background(), "LV-01")
	require.NoError(t, err)

	// the hub never echoes to the origin, and applySnapshot double-checks;
	// the counter must keep its allocated value
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(2), led.Peek("LV-01"))
}
