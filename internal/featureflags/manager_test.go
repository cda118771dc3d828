package featureflags

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManagerEnabled(t *testing.T) {
	t.Parallel()

	t.Run("boolean values", func(t *testing.T) {
		t.Parallel()
		m := NewManager("demo_banner=on,letterhead_embed=off,a=true,b=false,c=1,d=0")

		assert.True(t, m.Enabled("demo_banner", ""))
		assert.False(t, m.Enabled("letterhead_embed", ""))
		assert.True(t, m.Enabled("a", ""))
		assert.False(t, m.Enabled("b", ""))
		assert.True(t, m.Enabled("c", ""))
		assert.False(t, m.Enabled("d", ""))
	})

	t.Run("unknown flag is off", func(t *testing.T) {
		t.Parallel()
		m := NewManager("demo_banner=on")
		assert.False(t, m.Enabled("nonexistent", "user-1"))
	})

	t.Run("nil manager is off", func(t *testing.T) {
		t.Parallel()
		var m *Manager
		assert.False(t, m.Enabled("demo_banner", ""))
	})

	t.Run("names and values are normalized", func(t *testing.T) {
		t.Parallel()
		m := NewManager(" Demo_Banner = ON ")
		assert.True(t, m.Enabled("demo_banner", ""))
		assert.True(t, m.Enabled("DEMO_BANNER", ""))
	})

	t.Run("malformed pairs are skipped", func(t *testing.T) {
		t.Parallel()
		m := NewManager("no-equals-sign,=empty-key,empty-value=,demo_banner=on")
		assert.True(t, m.Enabled("demo_banner", ""))
		assert.Len(t, m.Raw(), 1)
	})

	t.Run("percentage rollout boundaries", func(t *testing.T) {
		t.Parallel()
		m := NewManager("zero=0%,full=100%,over=150%,half=50%")

		assert.False(t, m.Enabled("zero", "user-1"))
		assert.True(t, m.Enabled("full", "user-1"))
		assert.True(t, m.Enabled("over", "user-1"))
		assert.False(t, m.Enabled("half", ""), "rollout needs a subject")
	})

	t.Run("percentage rollout is deterministic per subject", func(t *testing.T) {
		t.Parallel()
		m := NewManager("half=50%")

		first := m.Enabled("half", "user-1")
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, m.Enabled("half", "user-1"))
		}
	})

	t.Run("percentage rollout roughly splits subjects", func(t *testing.T) {
		t.Parallel()
		m := NewManager("half=50%")

		enabled := 0
		for i := 0; i < 1000; i++ {
			if m.Enabled("half", fmt.Sprintf("user-%d", i)) {
				enabled++
			}
		}
		assert.Greater(t, enabled, 300)
		assert.Less(t, enabled, 700)
	})

	t.Run("invalid percentage is off", func(t *testing.T) {
		t.Parallel()
		m := NewManager("bad=abc%")
		assert.False(t, m.Enabled("bad", "user-1"))
	})
}

func TestManagerSnapshot(t *testing.T) {
	t.Parallel()

	m := NewManager("demo_banner=on,letterhead_embed=off")
	snap := m.Snapshot("user-1")

	assert.Equal(t, map[string]bool{
		"demo_banner":      true,
		"letterhead_embed": false,
	}, snap)
}
