// Package settings provides the configuration namespace used by a web
// application's test suite: a base settings file, an optional test-only
// overlay whose values take precedence, and environment variables on top.
package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Settings is a thread-safe namespace of configuration key/value pairs.
// Keys are dotted paths ("database.host"); values are YAML scalars, lists,
// or whatever was stored via Set.
type Settings struct {
	mu     sync.RWMutex
	values map[string]any
}

// New creates an empty Settings namespace.
func New() *Settings {
	return &Settings{values: make(map[string]any)}
}

// FromMap creates a Settings namespace from a possibly nested map.
// Nested string-keyed maps are flattened to dotted keys.
func FromMap(m map[string]any) *Settings {
	s := New()
	flattenInto(s.values, "", m)
	return s
}

// flattenInto flattens nested maps into dst under the given key prefix.
func flattenInto(dst map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(dst, key, nested)
			continue
		}
		dst[key] = v
	}
}

// Get returns the raw value for key and whether it is present.
func (s *Settings) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores a value under key, replacing any existing value.
func (s *Settings) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key from the namespace.
func (s *Settings) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Has reports whether key is present.
func (s *Settings) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns all keys in sorted order.
func (s *Settings) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy of the namespace.
func (s *Settings) Clone() *Settings {
	return &Settings{values: s.Snapshot()}
}

// Snapshot returns a copy of the underlying key/value map.
func (s *Settings) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make(map[string]any, len(s.values))
	for k, v := range s.values {
		values[k] = v
	}
	return values
}

// Restore replaces the namespace contents with a previously taken snapshot.
func (s *Settings) Restore(snapshot map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[string]any, len(snapshot))
	for k, v := range snapshot {
		s.values[k] = v
	}
}

// Merge applies every key from overlay onto s. Overlay values replace base
// values wholesale; keys absent from the overlay are left untouched.
func (s *Settings) Merge(overlay *Settings) {
	for k, v := range overlay.Snapshot() {
		s.Set(k, v)
	}
}

// String returns the value for key as a string, or def when absent.
func (s *Settings) String(key, def string) string {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return def
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Int returns the value for key as an int, or def when absent or
// not convertible.
func (s *Settings) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Bool returns the value for key as a bool, or def when absent or
// not convertible.
func (s *Settings) Bool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err != nil {
			return def
		}
		return b
	case int:
		return val != 0
	default:
		return def
	}
}

// Float returns the value for key as a float64, or def when absent or
// not convertible.
func (s *Settings) Float(key string, def float64) float64 {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// Duration returns the value for key as a time.Duration, or def when absent
// or not parseable. Strings use time.ParseDuration; bare numbers are
// interpreted as seconds.
func (s *Settings) Duration(key string, def time.Duration) time.Duration {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case time.Duration:
		return val
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(val))
		if err != nil {
			return def
		}
		return d
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	default:
		return def
	}
}

// Strings returns the value for key as a string slice, or def when absent.
// YAML lists and comma-separated strings are both accepted.
func (s *Settings) Strings(key string, def []string) []string {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if strings.TrimSpace(val) == "" {
			return def
		}
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	default:
		return def
	}
}
