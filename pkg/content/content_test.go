package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleBody = `Intro paragraph before any section.

## Instructions

Step one, then step two.

## Examples

### Basic

An example here.

## Notes

A note.
`

func TestExtractSection(t *testing.T) {
	t.Run("finds a named section", func(t *testing.T) {
		got := ExtractSection(sampleBody, "examples")
		assert.True(t, strings.HasPrefix(got, "## Examples"))
		assert.Contains(t, got, "An example here.")
		assert.NotContains(t, got, "A note.")
	})

	t.Run("case insensitive", func(t *testing.T) {
		got := ExtractSection(sampleBody, "NOTES")
		assert.Contains(t, got, "A note.")
	})

	t.Run("section runs to end of body", func(t *testing.T) {
		got := ExtractSection(sampleBody, "notes")
		assert.True(t, strings.HasSuffix(got, "A note."))
	})

	t.Run("instructions section", func(t *testing.T) {
		got := ExtractSection(sampleBody, "instructions")
		assert.Contains(t, got, "Step one, then step two.")
		assert.NotContains(t, got, "An example here.")
	})

	t.Run("instructions fallback to leading text", func(t *testing.T) {
		body := "Just leading prose.\n\n## Examples\n\nSomething.\n"
		got := ExtractSection(body, "instructions")
		assert.Equal(t, "Just leading prose.", got)
	})

	t.Run("instructions fallback with empty body", func(t *testing.T) {
		got := ExtractSection("", "instructions")
		assert.Equal(t, "[No instructions section found]", got)
	})

	t.Run("missing section", func(t *testing.T) {
		got := ExtractSection(sampleBody, "deployment")
		assert.Contains(t, got, "not found")
	})

	t.Run("nested heading stops the section", func(t *testing.T) {
		got := ExtractSection(sampleBody, "basic")
		assert.True(t, strings.HasPrefix(got, "### Basic"))
		assert.NotContains(t, got, "## Notes")
	})
}

func TestApplyMaxLines(t *testing.T) {
	text := "a\nb\nc\nd\ne"

	assert.Equal(t, text, ApplyMaxLines(text, 0))
	assert.Equal(t, text, ApplyMaxLines(text, 10))

	truncated := ApplyMaxLines(text, 2)
	assert.True(t, strings.HasPrefix(truncated, "a\nb\n"))
	assert.Contains(t, truncated, "3 more lines")
}
