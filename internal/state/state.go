// Package state holds the per-widget replicated state snapshot: display and
// theme context, tool input/output, and widget-owned state. The snapshot is
// created with defaults at client initialization, mutated only through
// atomic shallow merges, and dropped when the surface unloads.
package state

import (
	"maps"
	"sync"
)

// Well-known snapshot keys. Merges are not restricted to these; unknown keys
// pass through untouched, last write per key wins.
const (
	KeyTheme                = "theme"
	KeyLocale               = "locale"
	KeyDisplayMode          = "displayMode"
	KeyUserAgent            = "userAgent"
	KeySafeArea             = "safeArea"
	KeyMaxHeight            = "maxHeight"
	KeyToolInput            = "toolInput"
	KeyToolOutput           = "toolOutput"
	KeyToolResponseMetadata = "toolResponseMetadata"
	KeyWidgetState          = "widgetState"
)

// Defaults returns the initial snapshot for a fresh widget instance.
func Defaults() map[string]any {
	return map[string]any{
		KeyTheme:       "light",
		KeyLocale:      "en",
		KeyDisplayMode: "inline",
		KeyUserAgent: map[string]any{
			"device":       "unknown",
			"capabilities": map[string]any{},
		},
		KeySafeArea: map[string]any{
			"insets": map[string]any{"top": 0, "bottom": 0, "left": 0, "right": 0},
		},
		KeyMaxHeight:            0,
		KeyToolInput:            nil,
		KeyToolOutput:           nil,
		KeyToolResponseMetadata: nil,
		KeyWidgetState:          map[string]any{},
	}
}

// Store is a mutex-guarded snapshot. Merges are atomic: a reader never
// observes a partially applied update.
type Store struct {
	mu       sync.RWMutex
	snapshot map[string]any
}

// NewStore creates a store initialized with Defaults.
func NewStore() *Store {
	return &Store{snapshot: Defaults()}
}

// Get returns a copy of the current snapshot. Callers may mutate the copy
// freely without affecting live state; nested values are shared, matching
// the shallow-merge granularity of updates.
func (s *Store) Get() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.snapshot))
	maps.Copy(out, s.snapshot)

	return out
}

// Value returns the current value for one key.
func (s *Store) Value(key string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot[key]
}

// Merge shallow-merges partial into the snapshot. No schema validation;
// last write per key wins.
func (s *Store) Merge(partial map[string]any) {
	if len(partial) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maps.Copy(s.snapshot, partial)
}

// Set replaces the value for one key.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot[key] = value
}
