package mergectx

import (
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// CrashRegistry records recoverable failures keyed by scenario. Backed
// by a linkedhashmap so iteration order matches insertion order, which
// keeps reporting output deterministic even though the map itself is
// written from possibly-concurrent sub-merges.
//
// Mutating access is append-only and single-writer per entry, guarded by
// a mutex so parallel sub-merges cannot lose updates.
type CrashRegistry struct {
	mu      sync.Mutex
	entries *linkedhashmap.Map
}

// NewCrashRegistry builds an empty registry.
func NewCrashRegistry() *CrashRegistry {
	return &CrashRegistry{entries: linkedhashmap.New()}
}

// Record appends (or overwrites) the failure for scenario. Safe for
// concurrent use.
func (r *CrashRegistry) Record(scenario string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries.Put(scenario, err)
}

// Lookup returns the recorded failure for scenario, if any.
func (r *CrashRegistry) Lookup(scenario string) (error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries.Get(scenario)
	if !ok {
		return nil, false
	}
	return v.(error), true
}

// Len reports how many scenarios have a recorded failure.
func (r *CrashRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries.Size()
}

// Scenarios returns the scenario keys in insertion order.
func (r *CrashRegistry) Scenarios() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := r.entries.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.(string)
	}
	return out
}
