package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsPrefixedAndOrdered(t *testing.T) {
	prev := NewID("report:")
	for i := 0; i < 100; i++ {
		next := NewID("report:")
		require.True(t, strings.HasPrefix(next, "report:"))
		assert.Less(t, prev, next, "ids must sort in creation order")
		prev = next
	}
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 20, ClampLimit("", 20, 100))
	assert.Equal(t, 20, ClampLimit("abc", 20, 100))
	assert.Equal(t, 20, ClampLimit("-5", 20, 100))
	assert.Equal(t, 5, ClampLimit("5", 20, 100))
	assert.Equal(t, 100, ClampLimit("500", 20, 100))
}

func TestCacheExpiry(t *testing.T) {
	c, err := NewCache(10, 20*time.Millisecond)
	require.NoError(t, err)

	c.Set("k", 42)
	assert.Equal(t, 42, c.Get("k"))

	time.Sleep(40 * time.Millisecond)
	assert.Nil(t, c.Get("k"))
}

func TestCacheDelete(t *testing.T) {
	c, err := NewCache(10, time.Minute)
	require.NoError(t, err)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a", "b")
	assert.Nil(t, c.Get("a"))
	assert.Nil(t, c.Get("b"))
}

func TestCacheDisabled(t *testing.T) {
	c, err := NewCache(10, 0)
	require.NoError(t, err)

	c.Set("a", 1)
	assert.Nil(t, c.Get("a"))
}

func TestCalculateScore(t *testing.T) {
	now := time.Now()

	assert.Zero(t, CalculateScore(now, now, 0, 0, false))

	fresh := CalculateScore(now.Add(-time.Hour), now, 2, 1, false)
	old := CalculateScore(now.Add(-48*time.Hour), now, 2, 1, false)
	assert.Greater(t, fresh, old, "older reports decay")

	busy := CalculateScore(now.Add(-time.Hour), now, 3, 4, true)
	assert.Greater(t, busy, fresh)
}

func TestRenderMarkdownSanitizes(t *testing.T) {
	out := string(RenderMarkdown("**jalan rusak** <script>alert(1)</script> [peta](https://example.com)"))

	assert.Contains(t, out, "<strong>jalan rusak</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `rel="nofollow noopener noreferrer"`)
}
