package system

import (
	"fmt"
	"sync"

	"github.com/ivlev/forestwatch/internal/raster"
)

// BufferPool recycles raster.Buffer values per size across a series of
// comparisons.
type BufferPool struct {
	pools map[string]*sync.Pool
	mu    sync.RWMutex
}

func NewBufferPool() *BufferPool {
	return &BufferPool{pools: make(map[string]*sync.Pool)}
}

func poolKey(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// Get returns a buffer of the requested size. Its contents are undefined.
func (p *BufferPool) Get(width, height int) *raster.Buffer {
	key := poolKey(width, height)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if !exists {
		p.mu.Lock()
		// Double check
		pool, exists = p.pools[key]
		if !exists {
			pool = &sync.Pool{
				New: func() interface{} {
					return raster.New(width, height)
				},
			}
			p.pools[key] = pool
		}
		p.mu.Unlock()
	}

	return pool.Get().(*raster.Buffer)
}

// Put hands buf back for reuse. Buffers of sizes never requested are dropped.
func (p *BufferPool) Put(buf *raster.Buffer) {
	if buf == nil || buf.Validate() != nil {
		return
	}
	key := poolKey(buf.Width, buf.Height)
	p.mu.RLock()
	pool, exists := p.pools[key]
	p.mu.RUnlock()

	if exists {
		pool.Put(buf)
	}
}
