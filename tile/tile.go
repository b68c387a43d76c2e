// Package tile provides the tile entity: a state machine over the load
// lifecycle, the interim chain that keeps superseded tiles renderable
// during reloads, and the per-renderer fade-in bookkeeping.
package tile

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vebgen/olts-sub002/tilecoord"
)

// State is the load state of a tile. States move forward through
// Idle < Loading < Loaded/Error < Empty; the only departure from
// monotonicity is allowed out of Error (retry, or Empty on release).
type State int

const (
	Idle State = iota
	Loading
	Loaded
	Error
	Empty
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Error:
		return "error"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Kind tags the tile variant. Dispatch happens over this tag and the
// release hook closure instead of an inheritance hierarchy.
type Kind int

const (
	KindData Kind = iota
	KindVector
	KindRenderAggregate
)

// DefaultTransition is the default fade-in duration.
const DefaultTransition = 250 * time.Millisecond

// frameBudget is added to the elapsed transition time so a tile drawn on
// the frame the transition ends does not render one last transparent frame.
const frameBudget = time.Second / 60

// sequence numbers tile creation; interim links must strictly decrease
// in sequence, which rules out cycles.
var sequence atomic.Uint64

type transitionStart struct {
	start time.Time
	done  bool
}

type listener struct {
	id int
	fn func()
}

// Tile is one addressable tile: its coordinate, a source-assigned key
// identifying the defining parameters (URL, style revision), the load
// state and the interim chain pointer. A Tile is safe for concurrent use;
// change listeners run outside the tile's lock.
type Tile struct {
	mu    sync.Mutex
	coord tilecoord.Coord
	key   string
	kind  Kind
	seq   uint64

	state   State
	interim *Tile

	transition       time.Duration
	transitionStarts map[string]transitionStart

	listeners    []listener
	nextListener int
	ready        chan struct{}
	readyDone    bool

	releaseHook func()
}

// Option configures a Tile at construction.
type Option func(*Tile)

// WithTransition sets the fade-in duration; 0 disables fading.
func WithTransition(d time.Duration) Option {
	return func(t *Tile) { t.transition = d }
}

// withReleaseHook is used by the specialized constructors to free their
// drawing resources on release.
func withReleaseHook(hook func()) Option {
	return func(t *Tile) { t.releaseHook = hook }
}

// New creates an Idle tile.
func New(kind Kind, coord tilecoord.Coord, key string, opts ...Option) *Tile {
	t := &Tile{
		coord:      coord,
		key:        key,
		kind:       kind,
		seq:        sequence.Add(1),
		state:      Idle,
		transition: DefaultTransition,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewEmpty creates a tile known in advance to have no data, e.g. one
// outside the source extent.
func NewEmpty(coord tilecoord.Coord, key string, opts ...Option) *Tile {
	t := New(KindData, coord, key, opts...)
	t.state = Empty
	return t
}

// Coord returns the tile coordinate.
func (t *Tile) Coord() tilecoord.Coord { return t.coord }

// Key returns the source-assigned key. A cached tile whose key differs
// from the source's current key is stale and due for replacement.
func (t *Tile) Key() string { return t.key }

// Kind returns the tile variant tag.
func (t *Tile) Kind() Kind { return t.kind }

// State returns the current load state.
func (t *Tile) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState transitions the tile and notifies listeners. Moving backward
// is a loader bug and panics, except out of Error: a retry may rewind an
// errored tile. Re-setting the current state re-fires the notification.
func (t *Tile) SetState(state State) {
	t.mu.Lock()
	if t.state != Error && state < t.state {
		cur := t.state
		t.mu.Unlock()
		panic(fmt.Sprintf("tile: cannot transition %v from %v to %v", t.coord, cur, state))
	}
	fire := t.setStateLocked(state)
	t.mu.Unlock()

	for _, l := range fire {
		l.fn()
	}
}

// setStateLocked assigns the state, resolves the ready channel on
// terminal states and returns the listeners to notify.
func (t *Tile) setStateLocked(state State) []listener {
	t.state = state
	if state == Loaded || state == Error || state == Empty {
		if t.ready != nil && !t.readyDone {
			close(t.ready)
		}
		t.readyDone = true
	}
	fire := make([]listener, len(t.listeners))
	copy(fire, t.listeners)
	return fire
}

// OnChange registers a listener fired after every state transition. The
// returned function unregisters it.
func (t *Tile) OnChange(fn func()) func() {
	t.mu.Lock()
	id := t.nextListener
	t.nextListener++
	t.listeners = append(t.listeners, listener{id: id, fn: fn})
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, l := range t.listeners {
			if l.id == id {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				break
			}
		}
	}
}

// Ready returns a channel closed once the tile reaches Loaded, Error or
// Empty. The channel is created lazily and memoized.
func (t *Tile) Ready() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready == nil {
		t.ready = make(chan struct{})
		if t.state == Loaded || t.state == Error || t.state == Empty {
			close(t.ready)
			t.readyDone = true
		}
	}
	return t.ready
}

// Release frees the tile on eviction. An errored tile is forced to Empty
// first so that retry-on-change listeners elsewhere unsubscribe instead
// of retrying an evicted tile forever; afterwards listeners are detached
// and the variant's drawing resources are freed.
func (t *Tile) Release() {
	t.mu.Lock()
	var fire []listener
	if t.state == Error {
		fire = t.setStateLocked(Empty)
	}
	hook := t.releaseHook
	t.releaseHook = nil
	t.mu.Unlock()

	for _, l := range fire {
		l.fn()
	}

	t.mu.Lock()
	t.listeners = nil
	t.mu.Unlock()

	if hook != nil {
		hook()
	}
}
