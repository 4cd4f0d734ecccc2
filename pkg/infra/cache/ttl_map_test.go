package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLMap(t *testing.T) {
	t.Run("it should return a stored value before expiry", func(t *testing.T) {
		m := NewTTLMap(time.Minute)
		m.Set("k", "v")

		got, ok := m.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", got)
	})

	t.Run("it should miss on unknown keys", func(t *testing.T) {
		m := NewTTLMap(time.Minute)

		_, ok := m.Get("absent")
		assert.False(t, ok)
	})

	t.Run("it should expire entries after the ttl", func(t *testing.T) {
		m := NewTTLMap(10 * time.Millisecond)
		m.Set("k", "v")

		time.Sleep(20 * time.Millisecond)

		_, ok := m.Get("k")
		assert.False(t, ok)
	})

	t.Run("it should refresh expiry on overwrite", func(t *testing.T) {
		m := NewTTLMap(30 * time.Millisecond)
		m.Set("k", "v1")
		time.Sleep(20 * time.Millisecond)
		m.Set("k", "v2")
		time.Sleep(20 * time.Millisecond)

		got, ok := m.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v2", got)
	})

	t.Run("it should delete and clear entries", func(t *testing.T) {
		m := NewTTLMap(time.Minute)
		m.Set("a", 1)
		m.Set("b", 2)

		m.Delete("a")
		_, ok := m.Get("a")
		assert.False(t, ok)

		m.Clear()
		_, ok = m.Get("b")
		assert.False(t, ok)
	})
}
