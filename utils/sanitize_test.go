package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePrompt(t *testing.T) {
	assert.Equal(t, "a red cube", SanitizePrompt("  a   red\tcube  "))
	assert.Equal(t, "hello world!", SanitizePrompt("hello\nworld!"))
	assert.Equal(t, "cube", SanitizePrompt("cube\x00\x07"))
	assert.Equal(t, "", SanitizePrompt("   "))
}

func TestFormatSceneName(t *testing.T) {
	assert.Equal(t, "a-red-cube", FormatSceneName("a red cube"))
	assert.Equal(t, "spaceship", FormatSceneName("spaceship!!!"))
	assert.Equal(t, "scene", FormatSceneName("???"))
	assert.Equal(t, "scene", FormatSceneName(""))

	long := FormatSceneName("a very long prompt describing an elaborate medieval castle on a hill")
	assert.LessOrEqual(t, len(long), 40)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "exactly10!", TruncateString("exactly10!", 10))
	assert.Equal(t, "truncat...", TruncateString("truncated string", 10))
}
