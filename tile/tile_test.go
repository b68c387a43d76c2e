package tile_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vebgen/olts-sub002/tile"
	"github.com/vebgen/olts-sub002/tilecoord"
)

func newTile(t *testing.T, opts ...tile.Option) *tile.Tile {
	t.Helper()
	return tile.New(tile.KindData, tilecoord.New(3, 2, 1), "rev1", opts...)
}

func TestSetStateForward(t *testing.T) {
	tl := newTile(t)
	if got := tl.State(); got != tile.Idle {
		t.Fatalf("initial state = %v, want idle", got)
	}

	changes := 0
	tl.OnChange(func() { changes++ })

	tl.SetState(tile.Loading)
	tl.SetState(tile.Loaded)

	if got := tl.State(); got != tile.Loaded {
		t.Errorf("state = %v, want loaded", got)
	}
	if changes != 2 {
		t.Errorf("change notifications = %v, want 2", changes)
	}
}

func TestSetStateIdempotentRefires(t *testing.T) {
	tl := newTile(t)
	tl.SetState(tile.Loading)

	changes := 0
	tl.OnChange(func() { changes++ })

	tl.SetState(tile.Loading)
	tl.SetState(tile.Loading)

	if changes != 2 {
		t.Errorf("re-setting the same state fired %v notifications, want 2", changes)
	}
	if got := tl.State(); got != tile.Loading {
		t.Errorf("state = %v, want loading", got)
	}
}

func TestSetStateBackwardPanics(t *testing.T) {
	tl := newTile(t)
	tl.SetState(tile.Loaded)

	defer func() {
		if recover() == nil {
			t.Error("moving state backward did not panic")
		}
	}()
	tl.SetState(tile.Loading)
}

func TestSetStateErrorAllowsRewind(t *testing.T) {
	tl := newTile(t)
	tl.SetState(tile.Loading)
	tl.SetState(tile.Error)

	// A retry may rewind an errored tile.
	tl.SetState(tile.Loading)
	tl.SetState(tile.Loaded)

	if got := tl.State(); got != tile.Loaded {
		t.Errorf("state after retry = %v, want loaded", got)
	}
}

func TestNewEmpty(t *testing.T) {
	tl := tile.NewEmpty(tilecoord.New(0, 0, 0), "rev1")
	if got := tl.State(); got != tile.Empty {
		t.Errorf("state = %v, want empty", got)
	}
}

func TestOnChangeUnsubscribe(t *testing.T) {
	tl := newTile(t)
	calls := 0
	unsub := tl.OnChange(func() { calls++ })

	tl.SetState(tile.Loading)
	unsub()
	tl.SetState(tile.Loaded)

	if calls != 1 {
		t.Errorf("unsubscribed listener called %v times, want 1", calls)
	}
}

func TestReleaseErrorBecomesEmpty(t *testing.T) {
	tl := newTile(t)
	tl.SetState(tile.Loading)
	tl.SetState(tile.Error)

	notified := false
	tl.OnChange(func() { notified = true })

	tl.Release()

	if got := tl.State(); got != tile.Empty {
		t.Errorf("state after release = %v, want empty", got)
	}
	if !notified {
		t.Error("release of an errored tile must fire a change notification")
	}
}

func TestReleaseDetachesListeners(t *testing.T) {
	tl := newTile(t)
	tl.SetState(tile.Loading)
	tl.SetState(tile.Loaded)

	calls := 0
	tl.OnChange(func() { calls++ })
	tl.Release()

	tl.SetState(tile.Loaded)
	if calls != 0 {
		t.Errorf("listener fired %v times after release, want 0", calls)
	}
}

func TestReady(t *testing.T) {
	tl := newTile(t)

	ready := tl.Ready()
	select {
	case <-ready:
		t.Fatal("ready resolved before the tile loaded")
	default:
	}

	if tl.Ready() != ready {
		t.Error("Ready is not memoized")
	}

	tl.SetState(tile.Loading)
	tl.SetState(tile.Loaded)

	select {
	case <-ready:
	default:
		t.Error("ready did not resolve on loaded")
	}

	// Already-terminal tiles resolve immediately.
	failed := newTile(t)
	failed.SetState(tile.Error)
	select {
	case <-failed.Ready():
	default:
		t.Error("ready did not resolve for an errored tile")
	}
}

func TestInterimTileWalk(t *testing.T) {
	a := newTile(t) // oldest
	b := newTile(t)
	c := newTile(t) // newest
	c.LinkInterim(b)
	b.LinkInterim(a)

	b.SetState(tile.Loading)
	c.SetState(tile.Loading)

	// Nothing loaded: fall back to the tile itself.
	if got := c.InterimTile(); got != c {
		t.Errorf("InterimTile with nothing loaded = %p, want c", got)
	}

	b.SetState(tile.Loaded)
	if got := c.InterimTile(); got != b {
		t.Errorf("InterimTile = %p, want b", got)
	}

	// A loaded head returns itself without walking.
	c.SetState(tile.Loaded)
	if got := c.InterimTile(); got != c {
		t.Errorf("InterimTile of a loaded tile = %p, want c", got)
	}
}

func TestRefreshInterimChainTruncatesBehindLoaded(t *testing.T) {
	a := newTile(t)
	b := newTile(t)
	c := newTile(t)
	c.LinkInterim(b)
	b.LinkInterim(a)

	a.SetState(tile.Loading)
	b.SetState(tile.Loading)
	b.SetState(tile.Loaded)
	c.SetState(tile.Loading)

	c.RefreshInterimChain()

	if got := c.Interim(); got != b {
		t.Errorf("c.Interim() = %p, want b", got)
	}
	if got := b.Interim(); got != nil {
		t.Errorf("b.Interim() = %p, want nil (a pruned)", got)
	}
}

func TestRefreshInterimChainSplicesIdle(t *testing.T) {
	a := newTile(t)
	b := newTile(t) // stays idle, never started
	c := newTile(t)
	c.LinkInterim(b)
	b.LinkInterim(a)

	a.SetState(tile.Loading)
	c.SetState(tile.Loading)

	c.RefreshInterimChain()

	if got := c.Interim(); got != a {
		t.Errorf("c.Interim() = %p, want a (idle b spliced out)", got)
	}
}

func TestLinkInterimCyclePanics(t *testing.T) {
	older := newTile(t)
	newer := newTile(t)

	defer func() {
		if recover() == nil {
			t.Error("linking a newer tile as interim did not panic")
		}
	}()
	older.LinkInterim(newer)
}

func TestAlpha(t *testing.T) {
	tl := newTile(t, tile.WithTransition(200*time.Millisecond))
	now := time.Unix(1000, 0)

	first := tl.Alpha("renderer-1", now)
	if first <= 0 || first >= 1 {
		t.Errorf("alpha right after latching = %v, want in (0, 1)", first)
	}

	mid := tl.Alpha("renderer-1", now.Add(100*time.Millisecond))
	if mid <= first || mid >= 1 {
		t.Errorf("alpha mid-transition = %v, want in (%v, 1)", mid, first)
	}

	if got := tl.Alpha("renderer-1", now.Add(200*time.Millisecond)); got != 1 {
		t.Errorf("alpha after the transition = %v, want 1", got)
	}

	// A second renderer latches its own start time.
	later := now.Add(150 * time.Millisecond)
	if got := tl.Alpha("renderer-2", later); got >= 1 {
		t.Errorf("alpha for a fresh renderer id = %v, want < 1", got)
	}
}

func TestAlphaDisabled(t *testing.T) {
	tl := newTile(t, tile.WithTransition(0))
	if got := tl.Alpha("renderer-1", time.Now()); got != 1 {
		t.Errorf("alpha with transitions disabled = %v, want 1", got)
	}
	if tl.InTransition("renderer-1") {
		t.Error("InTransition with transitions disabled = true, want false")
	}
}

func TestEndTransition(t *testing.T) {
	tl := newTile(t, tile.WithTransition(200*time.Millisecond))
	now := time.Unix(1000, 0)

	if !tl.InTransition("renderer-1") {
		t.Error("a never-drawn tile should count as in transition")
	}

	tl.Alpha("renderer-1", now)
	if !tl.InTransition("renderer-1") {
		t.Error("InTransition mid-fade = false, want true")
	}

	tl.EndTransition("renderer-1")
	if tl.InTransition("renderer-1") {
		t.Error("InTransition after EndTransition = true, want false")
	}
	if got := tl.Alpha("renderer-1", now); got != 1 {
		t.Errorf("alpha after EndTransition = %v, want 1", got)
	}
}

func TestDataTileLoad(t *testing.T) {
	var loads int
	dt := tile.NewDataTile(tilecoord.New(1, 0, 0), "rev1", func(c tilecoord.Coord) ([]byte, error) {
		loads++
		return []byte("payload " + c.Key()), nil
	})

	dt.Load()
	if got := dt.State(); got != tile.Loaded {
		t.Fatalf("state after load = %v, want loaded", got)
	}
	if got, want := string(dt.Data()), "payload 1/0/0"; got != want {
		t.Errorf("data = %q, want %q", got, want)
	}

	dt.Load()
	if loads != 1 {
		t.Errorf("loader ran %v times, want 1 (load must be idempotent)", loads)
	}
}

func TestDataTileLoadFailureAndRetry(t *testing.T) {
	fail := true
	dt := tile.NewDataTile(tilecoord.New(1, 0, 0), "rev1", func(tilecoord.Coord) ([]byte, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []byte("ok"), nil
	})

	dt.Load()
	if got := dt.State(); got != tile.Error {
		t.Fatalf("state after failed load = %v, want error", got)
	}

	fail = false
	dt.Load()
	if got := dt.State(); got != tile.Loaded {
		t.Errorf("state after retry = %v, want loaded", got)
	}
}

func TestDataTileEmptyPayload(t *testing.T) {
	dt := tile.NewDataTile(tilecoord.New(1, 0, 0), "rev1", func(tilecoord.Coord) ([]byte, error) {
		return nil, nil
	})
	dt.Load()
	if got := dt.State(); got != tile.Empty {
		t.Errorf("state for a missing tile = %v, want empty", got)
	}
}
