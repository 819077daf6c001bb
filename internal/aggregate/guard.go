package aggregate

import (
	"sync"
	"time"
)

// RunGuard is an advisory scheduler guard: it refuses to start a pass
// for a key until a minimum interval has elapsed since the last start.
// It is not a correctness requirement of the engine.
type RunGuard struct {
	mu          sync.Mutex
	minInterval time.Duration
	now         func() time.Time
	lastStart   map[string]time.Time
}

func NewRunGuard(minInterval time.Duration) *RunGuard {
	return &RunGuard{
		minInterval: minInterval,
		now:         time.Now,
		lastStart:   make(map[string]time.Time),
	}
}

// TryStart reports whether a pass for the key may begin, recording the
// start time when it does.
func (g *RunGuard) TryStart(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.lastStart[key]; ok && now.Sub(last) < g.minInterval {
		return false
	}
	g.lastStart[key] = now
	return true
}
