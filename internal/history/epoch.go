// Package history loads conversation backlogs from the upstream REST API and
// filters out responses that arrive after the user has already moved on.
package history

import "sync"

// LoadKind distinguishes the two independent history-load streams.
type LoadKind int

const (
	LoadDirect LoadKind = iota
	LoadGroup
)

// Guard implements soft cancellation of history loads. Each load captures the
// epoch returned by Begin; a response whose epoch no longer matches the live
// counter was superseded by a newer load and must be discarded, otherwise
// messages from conversation A would render into conversation B's pane.
//
// Counters are monotonic for the guard's lifetime and never reset.
type Guard struct {
	mu     sync.Mutex
	direct uint64
	group  uint64
}

func NewGuard() *Guard {
	return &Guard{}
}

// Begin starts a new load generation for kind and returns its epoch.
func (g *Guard) Begin(kind LoadKind) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch kind {
	case LoadGroup:
		g.group++
		return g.group
	default:
		g.direct++
		return g.direct
	}
}

// IsCurrent reports whether epoch is still the live generation for kind.
func (g *Guard) IsCurrent(kind LoadKind, epoch uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch kind {
	case LoadGroup:
		return epoch == g.group
	default:
		return epoch == g.direct
	}
}
