package settings

import "testing"

// Override sets key to value for the duration of a test, restoring the
// previous namespace contents on cleanup. This avoids writing overlay files
// to disk when a single test needs a different setting.
func Override(t testing.TB, s *Settings, key string, value any) {
	t.Helper()
	OverrideMany(t, s, map[string]any{key: value})
}

// OverrideMany applies several overrides at once, restoring the previous
// namespace contents on cleanup.
func OverrideMany(t testing.TB, s *Settings, values map[string]any) {
	t.Helper()
	snapshot := s.Snapshot()
	for k, v := range values {
		s.Set(k, v)
	}
	t.Cleanup(func() {
		s.Restore(snapshot)
	})
}
