// Package hook implements the priority-ordered callback registry used as
// internal plumbing throughout the application. Filters transform a value as
// it passes through the chain; actions are fire-and-forget notifications.
//
// Dispatch is re-entrant: a callback may emit the same or another hook, and
// may add or remove callbacks (including itself) while a dispatch is in
// flight. Removal of a callback that has not yet run in the current dispatch
// takes effect immediately; a callback added at a priority the cursor has
// already passed waits for the next dispatch.
package hook

import (
	"context"
	"sort"
	"sync"
)

// FilterFunc transforms value and returns the replacement. Additional
// dispatch arguments are passed through untouched.
type FilterFunc func(ctx context.Context, value interface{}, args ...interface{}) interface{}

// ActionFunc is notified when an action fires.
type ActionFunc func(ctx context.Context, args ...interface{})

// DefaultPriority is used when callers have no ordering requirement.
const DefaultPriority = 10

type entry struct {
	tag      string
	priority int
	seq      uint64
	fn       FilterFunc
}

// Registry is a named, priority-ordered callback registry.
type Registry struct {
	mu      sync.Mutex
	hooks   map[string][]entry // sorted by (priority, seq)
	seq     uint64
	current []string
	fired   map[string]int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		hooks: make(map[string][]entry),
		fired: make(map[string]int),
	}
}

// AddFilter registers fn under the given hook name. The tag identifies the
// callback for later removal; registering the same tag at the same priority
// replaces the previous callback, mirroring re-registration semantics.
func (r *Registry) AddFilter(name, tag string, fn FilterFunc, priority int) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.hooks[name]
	for i, e := range entries {
		if e.tag == tag && e.priority == priority {
			entries[i].fn = fn
			return
		}
	}

	r.seq++
	entries = append(entries, entry{tag: tag, priority: priority, seq: r.seq, fn: fn})
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority < entries[j].priority
		}
		return entries[i].seq < entries[j].seq
	})
	r.hooks[name] = entries
}

// AddAction registers a fire-and-forget callback. Actions share the filter
// table; the adapter passes the value through unchanged.
func (r *Registry) AddAction(name, tag string, fn ActionFunc, priority int) {
	if fn == nil {
		return
	}
	r.AddFilter(name, tag, func(ctx context.Context, value interface{}, args ...interface{}) interface{} {
		fn(ctx, args...)
		return value
	}, priority)
}

// RemoveFilter unregisters the callback registered under (tag, priority).
// It reports whether a callback was removed.
func (r *Registry) RemoveFilter(name, tag string, priority int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.hooks[name]
	for i, e := range entries {
		if e.tag == tag && e.priority == priority {
			r.hooks[name] = append(entries[:i:i], entries[i+1:]...)
			if len(r.hooks[name]) == 0 {
				delete(r.hooks, name)
			}
			return true
		}
	}
	return false
}

// RemoveAll unregisters every callback for the hook.
func (r *Registry) RemoveAll(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hooks, name)
}

// HasFilter reports whether (tag) is registered for the hook and returns its
// priority. An empty tag reports whether the hook has any callbacks.
func (r *Registry) HasFilter(name, tag string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.hooks[name]
	if tag == "" {
		if len(entries) == 0 {
			return 0, false
		}
		return entries[0].priority, true
	}
	for _, e := range entries {
		if e.tag == tag {
			return e.priority, true
		}
	}
	return 0, false
}

// ApplyFilters runs the hook's callbacks in priority order, threading value
// through each one, and returns the final value. Unregistered hooks return
// value unchanged.
func (r *Registry) ApplyFilters(ctx context.Context, name string, value interface{}, args ...interface{}) interface{} {
	r.mu.Lock()
	r.current = append(r.current, name)
	r.fired[name]++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.current = r.current[:len(r.current)-1]
		r.mu.Unlock()
	}()

	// The cursor tracks the (priority, seq) of the last callback run. Each
	// step re-reads the live table, so mutations made by callbacks are
	// observed: removed entries are skipped, entries added behind the cursor
	// wait for the next dispatch.
	curPriority, curSeq := 0, uint64(0)
	started := false
	for {
		fn, priority, seq, ok := r.next(name, curPriority, curSeq, started)
		if !ok {
			return value
		}
		value = fn(ctx, value, args...)
		curPriority, curSeq, started = priority, seq, true
	}
}

// next returns the first live entry strictly after the cursor position.
func (r *Registry) next(name string, priority int, seq uint64, started bool) (FilterFunc, int, uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.hooks[name] {
		if !started || e.priority > priority || (e.priority == priority && e.seq > seq) {
			return e.fn, e.priority, e.seq, true
		}
	}
	return nil, 0, 0, false
}

// DoAction runs the hook's callbacks in priority order, discarding values.
func (r *Registry) DoAction(ctx context.Context, name string, args ...interface{}) {
	r.ApplyFilters(ctx, name, nil, args...)
}

// Current returns the name of the hook currently being dispatched, or "".
// With nested dispatch, the innermost hook is returned.
func (r *Registry) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.current) == 0 {
		return ""
	}
	return r.current[len(r.current)-1]
}

// Doing reports whether the named hook is anywhere on the dispatch stack.
// An empty name reports whether any dispatch is in progress.
func (r *Registry) Doing(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return len(r.current) > 0
	}
	for _, h := range r.current {
		if h == name {
			return true
		}
	}
	return false
}

// Fired returns how many times the hook has been dispatched.
func (r *Registry) Fired(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fired[name]
}

// Default is the process-wide registry used by the package-level helpers.
var Default = NewRegistry()

// AddFilter registers fn on the default registry.
func AddFilter(name, tag string, fn FilterFunc, priority int) {
	Default.AddFilter(name, tag, fn, priority)
}

// AddAction registers fn on the default registry.
func AddAction(name, tag string, fn ActionFunc, priority int) {
	Default.AddAction(name, tag, fn, priority)
}

// RemoveFilter unregisters a callback from the default registry.
func RemoveFilter(name, tag string, priority int) bool {
	return Default.RemoveFilter(name, tag, priority)
}

// ApplyFilters dispatches a filter on the default registry.
func ApplyFilters(ctx context.Context, name string, value interface{}, args ...interface{}) interface{} {
	return Default.ApplyFilters(ctx, name, value, args...)
}

// DoAction dispatches an action on the default registry.
func DoAction(ctx context.Context, name string, args ...interface{}) {
	Default.DoAction(ctx, name, args...)
}
