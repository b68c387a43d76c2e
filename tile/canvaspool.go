package tile

import (
	"sync"

	"github.com/fogleman/gg"
)

// CanvasPool recycles drawing contexts across tile churn, amortizing the
// allocation cost of their pixel buffers. Pass one pool to every render
// tile that should share canvases.
//
// The pool guarantees availability, not zeroed content: a context handed
// out by Get keeps whatever pixels its previous owner drew, and the
// consumer must fully overwrite them before reading.
type CanvasPool struct {
	// pools holds one sync.Pool per canvas size, keyed width<<32|height.
	pools sync.Map
}

// NewCanvasPool creates an empty pool.
func NewCanvasPool() *CanvasPool {
	return &CanvasPool{}
}

func canvasKey(width, height int) uint64 {
	return uint64(uint32(width))<<32 | uint64(uint32(height))
}

// Get returns a drawing context of the requested pixel size, reusing a
// returned one when available.
func (p *CanvasPool) Get(width, height int) *gg.Context {
	pool := p.sizePool(width, height)
	return pool.Get().(*gg.Context)
}

// Put returns a context to the pool for reuse.
func (p *CanvasPool) Put(dc *gg.Context) {
	if dc == nil {
		return
	}
	p.sizePool(dc.Width(), dc.Height()).Put(dc)
}

func (p *CanvasPool) sizePool(width, height int) *sync.Pool {
	key := canvasKey(width, height)
	if pool, ok := p.pools.Load(key); ok {
		return pool.(*sync.Pool)
	}
	pool, _ := p.pools.LoadOrStore(key, &sync.Pool{
		New: func() any { return gg.NewContext(width, height) },
	})
	return pool.(*sync.Pool)
}
