package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverride_RestoresOnCleanup(t *testing.T) {
	s := New()
	s.Set("tasks.always_eager", false)

	t.Run("inner", func(t *testing.T) {
		Override(t, s, "tasks.always_eager", true)
		assert.True(t, s.Bool("tasks.always_eager", false))
	})

	assert.False(t, s.Bool("tasks.always_eager", true))
}

func TestOverrideMany_RestoresAddedKeys(t *testing.T) {
	s := New()
	s.Set("existing", "before")

	t.Run("inner", func(t *testing.T) {
		OverrideMany(t, s, map[string]any{
			"existing": "after",
			"added":    1,
		})
		assert.Equal(t, "after", s.String("existing", ""))
		assert.True(t, s.Has("added"))
	})

	assert.Equal(t, "before", s.String("existing", ""))
	assert.False(t, s.Has("added"))
}
