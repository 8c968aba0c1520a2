package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromMap_FlattensNestedMaps(t *testing.T) {
	s := FromMap(map[string]any{
		"debug": false,
		"database": map[string]any{
			"host": "localhost",
			"port": 5432,
		},
		"tasks": map[string]any{
			"always_eager": true,
		},
	})

	assert.Equal(t, "localhost", s.String("database.host", ""))
	assert.Equal(t, 5432, s.Int("database.port", 0))
	assert.True(t, s.Bool("tasks.always_eager", false))
	assert.False(t, s.Bool("debug", true))
}

func TestSettings_SetGetDelete(t *testing.T) {
	s := New()

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("key", "value")
	v, ok := s.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.True(t, s.Has("key"))

	s.Delete("key")
	assert.False(t, s.Has("key"))
}

func TestSettings_Keys(t *testing.T) {
	s := New()
	s.Set("b", 2)
	s.Set("a", 1)
	s.Set("c", 3)

	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}

func TestSettings_Merge_OverlayWins(t *testing.T) {
	base := FromMap(map[string]any{
		"debug":              true,
		"tasks.always_eager": false,
		"database.host":      "db.internal",
	})
	overlay := FromMap(map[string]any{
		"tasks.always_eager": true,
		"database.host":      "localhost",
	})

	base.Merge(overlay)

	assert.True(t, base.Bool("tasks.always_eager", false))
	assert.Equal(t, "localhost", base.String("database.host", ""))
	// Keys absent from the overlay keep their base values.
	assert.True(t, base.Bool("debug", false))
}

func TestSettings_Clone_IsIndependent(t *testing.T) {
	s := New()
	s.Set("key", "original")

	c := s.Clone()
	c.Set("key", "changed")

	assert.Equal(t, "original", s.String("key", ""))
	assert.Equal(t, "changed", c.String("key", ""))
}

func TestSettings_SnapshotRestore(t *testing.T) {
	s := New()
	s.Set("key", "before")

	snapshot := s.Snapshot()
	s.Set("key", "after")
	s.Set("extra", 1)

	s.Restore(snapshot)

	assert.Equal(t, "before", s.String("key", ""))
	assert.False(t, s.Has("extra"))
}

func TestSettings_String(t *testing.T) {
	s := New()
	s.Set("str", "value")
	s.Set("num", 42)

	assert.Equal(t, "value", s.String("str", "def"))
	assert.Equal(t, "42", s.String("num", "def"))
	assert.Equal(t, "def", s.String("missing", "def"))
}

func TestSettings_Int(t *testing.T) {
	s := New()
	s.Set("int", 42)
	s.Set("str", "17")
	s.Set("float", 3.0)
	s.Set("bad", "nope")

	assert.Equal(t, 42, s.Int("int", 0))
	assert.Equal(t, 17, s.Int("str", 0))
	assert.Equal(t, 3, s.Int("float", 0))
	assert.Equal(t, 9, s.Int("bad", 9))
	assert.Equal(t, 9, s.Int("missing", 9))
}

func TestSettings_Bool(t *testing.T) {
	s := New()
	s.Set("b", true)
	s.Set("str", "true")
	s.Set("num", 1)
	s.Set("bad", "maybe")

	assert.True(t, s.Bool("b", false))
	assert.True(t, s.Bool("str", false))
	assert.True(t, s.Bool("num", false))
	assert.False(t, s.Bool("bad", false))
	assert.True(t, s.Bool("missing", true))
}

func TestSettings_Duration(t *testing.T) {
	s := New()
	s.Set("str", "90s")
	s.Set("dur", 2*time.Minute)
	s.Set("secs", 30)
	s.Set("bad", "forever")

	assert.Equal(t, 90*time.Second, s.Duration("str", 0))
	assert.Equal(t, 2*time.Minute, s.Duration("dur", 0))
	assert.Equal(t, 30*time.Second, s.Duration("secs", 0))
	assert.Equal(t, time.Second, s.Duration("bad", time.Second))
	assert.Equal(t, time.Second, s.Duration("missing", time.Second))
}

func TestSettings_Strings(t *testing.T) {
	s := New()
	s.Set("list", []any{"a", "b"})
	s.Set("csv", "x, y ,z")
	s.Set("typed", []string{"q"})

	assert.Equal(t, []string{"a", "b"}, s.Strings("list", nil))
	assert.Equal(t, []string{"x", "y", "z"}, s.Strings("csv", nil))
	assert.Equal(t, []string{"q"}, s.Strings("typed", nil))
	assert.Equal(t, []string{"def"}, s.Strings("missing", []string{"def"}))
}
