package worker

import "sync"

// Cell is a shared completion counter with a wake primitive. The host
// allocates one per job and lends it to the endpoint; the endpoint performs
// exactly one increment for the cell's entire existence, strictly after the
// reply has been posted. The host blocks in Wait until the counter moves.
//
// The mutex orders the counter write with the wake, so a waiter that
// observes the new value is guaranteed to also observe everything published
// before the increment.
type Cell struct {
	mu   sync.Mutex
	cond *sync.Cond
	n    uint64
}

// NewCell creates a completion cell with counter at zero.
func NewCell() *Cell {
	c := &Cell{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Add increments the counter and wakes all waiters. Returns the new value.
func (c *Cell) Add(delta uint64) uint64 {
	c.mu.Lock()
	c.n += delta
	n := c.n
	c.mu.Unlock()
	c.cond.Broadcast()
	return n
}

// Wait blocks until the counter differs from old, then returns the current
// value. This is a true thread-level block, the caller does no other work
// while waiting.
func (c *Cell) Wait(old uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.n == old {
		c.cond.Wait()
	}
	return c.n
}

// Value returns the current counter value.
func (c *Cell) Value() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
