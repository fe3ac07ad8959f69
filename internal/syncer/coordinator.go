package syncer

import (
	"context"
	"sync"
)

// Coordinator pauses cloud sync while local write transactions run. The
// transaction manager calls Suspend when it takes the writer slot and
// Resume when it lets go; the sync worker waits for an idle store before
// each pass. Suspends nest.
type Coordinator struct {
	mu      sync.Mutex
	depth   int
	resumed chan struct{}
}

// NewCoordinator creates an idle coordinator.
func NewCoordinator() *Coordinator {
	c := &Coordinator{resumed: make(chan struct{})}
	close(c.resumed)
	return c
}

// Suspend pauses sync work until a matching Resume.
func (c *Coordinator) Suspend() {
	c.mu.Lock()
	if c.depth == 0 {
		c.resumed = make(chan struct{})
	}
	c.depth++
	c.mu.Unlock()
}

// Resume releases one Suspend. Extra Resumes are ignored.
func (c *Coordinator) Resume() {
	c.mu.Lock()
	if c.depth > 0 {
		c.depth--
		if c.depth == 0 {
			close(c.resumed)
		}
	}
	c.mu.Unlock()
}

// Suspended reports whether any local transaction currently holds the store.
func (c *Coordinator) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth > 0
}

// WaitIdle blocks until no local transaction holds the store or the context
// ends.
func (c *Coordinator) WaitIdle(ctx context.Context) error {
	c.mu.Lock()
	ch := c.resumed
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
