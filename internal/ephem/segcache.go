package ephem

import (
	"io"
	"sync"
)

// SegKey identifies one lazily loaded data segment: a source path plus a
// segment index within it.
type SegKey struct {
	Path string
	Seg  int
}

type segEntry struct {
	ready chan struct{}
	val   any
	err   error
}

// SegCache holds process-wide data segment handles. Segments load lazily
// on first use with at most one concurrent loader per segment; concurrent
// readers of a loaded segment never block each other. Handles live until
// an explicit Close.
type SegCache struct {
	mu   sync.Mutex
	segs map[SegKey]*segEntry
}

// Load returns the cached segment for key, invoking load to fill it on
// first use. Callers racing on a cold segment wait for the single loader;
// a failed load is not cached, so the next caller retries.
func (c *SegCache) Load(key SegKey, load func() (any, error)) (any, error) {
	c.mu.Lock()
	if c.segs == nil {
		c.segs = make(map[SegKey]*segEntry)
	}
	if e, ok := c.segs[key]; ok {
		c.mu.Unlock()
		<-e.ready
		return e.val, e.err
	}
	e := &segEntry{ready: make(chan struct{})}
	c.segs[key] = e
	c.mu.Unlock()

	e.val, e.err = load()
	if e.err != nil {
		c.mu.Lock()
		delete(c.segs, key)
		c.mu.Unlock()
	}
	close(e.ready)
	return e.val, e.err
}

// Close releases every cached segment, closing handles that implement
// io.Closer. The cache is reusable afterwards; segments reload lazily.
func (c *SegCache) Close() error {
	c.mu.Lock()
	segs := c.segs
	c.segs = nil
	c.mu.Unlock()

	var first error
	for _, e := range segs {
		<-e.ready
		if cl, ok := e.val.(io.Closer); ok && e.err == nil {
			if err := cl.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// segments is the process-wide segment cache shared by all providers.
var segments SegCache

// Segments exposes the shared segment cache for file-backed providers.
func Segments() *SegCache { return &segments }
