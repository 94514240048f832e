package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateText(t *testing.T) {
	t.Run("substantial text passes", func(t *testing.T) {
		text := strings.Repeat("This page carries genuine prose content. ", 10)
		require.NoError(t, ValidateText(text))
	})

	t.Run("empty text fails fast", func(t *testing.T) {
		assert.ErrorIs(t, ValidateText(""), ErrNoExtractableText)
	})

	t.Run("below minimum total length", func(t *testing.T) {
		assert.ErrorIs(t, ValidateText("tiny fragment"), ErrNoExtractableText)
	})

	t.Run("whitespace does not count", func(t *testing.T) {
		text := "some words" + strings.Repeat(" \n\t", 200)
		assert.ErrorIs(t, ValidateText(text), ErrNoExtractableText)
	})

	t.Run("page-marker noise only", func(t *testing.T) {
		var sb strings.Builder
		for i := 1; i <= 60; i++ {
			sb.WriteString("Page ")
			sb.WriteString(strings.Repeat("1", 1+i%3))
			sb.WriteString("\n- 12 -\n第 3 页\n42\n")
		}
		assert.ErrorIs(t, ValidateText(sb.String()), ErrMarkerNoiseOnly)
	})

	t.Run("markers mixed with real content passes", func(t *testing.T) {
		text := "Page 1\n" +
			strings.Repeat("Real sentences about the subject matter at hand. ", 5) +
			"\n- 2 -\nmore real content follows here to pad things out nicely"
		require.NoError(t, ValidateText(text))
	})

	t.Run("cjk content passes", func(t *testing.T) {
		text := strings.Repeat("复利是世界第八大奇迹，理解它的人赚取它。", 5)
		require.NoError(t, ValidateText(text))
	})
}
