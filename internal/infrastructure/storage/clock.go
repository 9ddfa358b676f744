package storage

import (
	"sync"
	"time"
)

// pinClock hands out strictly increasing pin times with microsecond resolution, the
// finest a postgres index keeps.
type pinClock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func newPinClock() *pinClock {
	return &pinClock{now: time.Now}
}

func (c *pinClock) next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := c.now().UTC().Truncate(time.Microsecond)
	if !at.After(c.last) {
		at = c.last.Add(time.Microsecond)
	}
	c.last = at
	return at
}
