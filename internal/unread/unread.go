// Package unread maintains per-conversation unread counts, reconciled against
// authoritative server snapshots and adjusted by local events.
package unread

import (
	"sync"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

type Counter struct {
	mu     sync.RWMutex
	counts map[models.ConvKey]int
}

func New() *Counter {
	return &Counter{counts: make(map[models.ConvKey]int)}
}

// ApplySnapshot replaces all counts with the server snapshot. Snapshots may be
// sparse (only nonzero counts), so every key currently known locally is first
// zeroed explicitly rather than left stale. Latest-arriving signal wins per
// key; no delta merging with prior local increments.
func (c *Counter) ApplySnapshot(snapshot map[models.ConvKey]int, knownKeys []models.ConvKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fresh := make(map[models.ConvKey]int, len(snapshot)+len(knownKeys))
	for _, k := range knownKeys {
		fresh[k] = 0
	}
	for k := range c.counts {
		if _, ok := fresh[k]; !ok {
			fresh[k] = 0
		}
	}
	for k, n := range snapshot {
		if n < 0 {
			n = 0
		}
		fresh[k] = n
	}
	c.counts = fresh
}

// Increment bumps the count by one. The engine calls this only for inbound
// non-self messages to conversations that are not currently open.
func (c *Counter) Increment(key models.ConvKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key]++
	return c.counts[key]
}

// Clear zeroes the count; called the instant a conversation becomes active.
func (c *Counter) Clear(key models.ConvKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key] = 0
}

// Count returns the current count for key.
func (c *Counter) Count(key models.ConvKey) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[key]
}

// All returns a copy of every count, including explicit zeros.
func (c *Counter) All() map[models.ConvKey]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[models.ConvKey]int, len(c.counts))
	for k, n := range c.counts {
		out[k] = n
	}
	return out
}
