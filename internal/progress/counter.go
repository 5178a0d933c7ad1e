package progress

import "sync/atomic"

// Counter is a byte count that can be advanced by one goroutine and read by
// others without locking. The zero value is ready to use.
type Counter struct {
	n atomic.Uint64
}

// Add advances the counter by n bytes and returns the new total.
func (c *Counter) Add(n int) uint64 {
	return c.n.Add(uint64(n))
}

// Load returns the number of bytes counted so far.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}
