package preprocess

import (
	"fmt"
	"sync"
)

// element is the set of value types a packed frame buffer can hold
type element interface {
	~float32 | ~uint8
}

// bufferPool holds a set of named pools of packed frame buffers
type bufferPool[T element] struct {
	mu    sync.Mutex
	pools map[string]*bufferEntry[T]
}

// bufferEntry defines a single named pool
type bufferEntry[T element] struct {
	pool    sync.Pool
	maxSize int
}

// newBufferPool returns an empty bufferPool
func newBufferPool[T element]() *bufferPool[T] {
	return &bufferPool[T]{
		pools: make(map[string]*bufferEntry[T]),
	}
}

// Create registers a new pool under 'name' that will produce buffers
// up to maxSize. Calling it twice with the same name returns an error.
func (b *bufferPool[T]) Create(name string, maxSize int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.pools[name]; exists {
		return fmt.Errorf("buffer pool %q already exists", name)
	}

	entry := &bufferEntry[T]{maxSize: maxSize}

	entry.pool.New = func() any {
		return make([]T, maxSize)
	}

	b.pools[name] = entry
	return nil
}

// Get returns a zeroed slice of length 'size' from the named pool.
// If size > maxSize, it allocates a new slice of exactly size.
// Panics if the pool name is unknown.
func (b *bufferPool[T]) Get(name string, size int) []T {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	buf := entry.pool.Get().([]T)

	if cap(buf) < size {
		return make([]T, size)
	}

	buf = buf[:size]
	clear(buf)

	return buf
}

// Put returns a buffer back into its named pool.  Buffers that did not come
// from the pool, or that are smaller than its maxSize, are dropped.
func (b *bufferPool[T]) Put(name string, buf []T) {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	if cap(buf) < entry.maxSize {
		return
	}

	// restore to full capacity so it matches entry.New next time
	entry.pool.Put(buf[:entry.maxSize])
}
