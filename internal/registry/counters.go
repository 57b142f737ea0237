package registry

import (
	"sync"

	"crossline/internal/zone"
)

// ClassCount holds running in-band totals for one class.
type ClassCount struct {
	Total int `json:"total"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Counters tracks in-band detections per class and side. Values only grow.
type Counters struct {
	counts map[int]*ClassCount
	mu     sync.Mutex
}

func NewCounters() *Counters {
	return &Counters{
		counts: make(map[int]*ClassCount),
	}
}

// Touch makes sure the class has an entry, without counting anything.
func (c *Counters) Touch(classID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry(classID)
}

// Increment counts one in-band detection and returns the new count for that
// side, which doubles as the crossing's sequence number. SideNone is ignored
// and returns 0.
func (c *Counters) Increment(classID int, side zone.Side) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := c.entry(classID)
	switch side {
	case zone.SideLeft:
		count.Total++
		count.Left++
		return count.Left
	case zone.SideRight:
		count.Total++
		count.Right++
		return count.Right
	default:
		return 0
	}
}

// Get returns the counts for a class.
func (c *Counters) Get(classID int) ClassCount {
	c.mu.Lock()
	defer c.mu.Unlock()

	if count, exists := c.counts[classID]; exists {
		return *count
	}
	return ClassCount{}
}

// Snapshot returns a copy of all counters keyed by class id.
func (c *Counters) Snapshot() map[int]ClassCount {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[int]ClassCount, len(c.counts))
	for id, count := range c.counts {
		out[id] = *count
	}
	return out
}

func (c *Counters) entry(classID int) *ClassCount {
	count, exists := c.counts[classID]
	if !exists {
		count = &ClassCount{}
		c.counts[classID] = count
	}
	return count
}
