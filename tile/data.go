package tile

import "github.com/vebgen/olts-sub002/tilecoord"

// DataLoader fetches the raw payload for a tile coordinate. The core
// imposes no format on the payload.
type DataLoader func(c tilecoord.Coord) ([]byte, error)

// DataTile is a tile holding an opaque binary payload (encoded image,
// protobuf, ...). Loading runs in the calling goroutine; callers wanting
// asynchronous loads spawn one themselves and watch Ready or OnChange.
type DataTile struct {
	Tile
	loader DataLoader
	data   []byte
}

// NewDataTile creates an Idle data tile that loads through loader.
func NewDataTile(coord tilecoord.Coord, key string, loader DataLoader, opts ...Option) *DataTile {
	t := &DataTile{loader: loader}
	t.Tile = *New(KindData, coord, key, opts...)
	return t
}

// Load fetches the payload. It is a no-op unless the tile is Idle or
// Error; an errored tile is rewound to Idle first, so retries are
// possible (callers must bound their own retry counts).
func (t *DataTile) Load() {
	t.mu.Lock()
	if t.state == Error {
		t.state = Idle
	}
	if t.state != Idle {
		t.mu.Unlock()
		return
	}
	fire := t.setStateLocked(Loading)
	loader := t.loader
	t.mu.Unlock()
	for _, l := range fire {
		l.fn()
	}

	data, err := loader(t.coord)
	if err != nil {
		t.SetState(Error)
		return
	}

	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
	if len(data) == 0 {
		t.SetState(Empty)
		return
	}
	t.SetState(Loaded)
}

// Data returns the loaded payload, nil before the tile is Loaded.
func (t *DataTile) Data() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data
}
