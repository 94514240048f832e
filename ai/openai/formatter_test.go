package openai

import (
	"context"
	"log/slog"
	"testing"

	"github.com/poiesic/distill/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptFormatterFormatLines(t *testing.T) {
	ctx := context.Background()

	newFormatter := func(model *fakeModel) *TranscriptFormatter {
		return &TranscriptFormatter{
			client: model,
			logger: slog.Default(),
		}
	}

	t.Run("returns rewritten lines", func(t *testing.T) {
		model := &fakeModel{response: `{"lines": ["Hello there.", "How are you?"]}`}

		lines, err := newFormatter(model).FormatLines(ctx, []string{"hello there", "how are you"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Hello there.", "How are you?"}, lines)
	})

	t.Run("line count mismatch is malformed", func(t *testing.T) {
		model := &fakeModel{response: `{"lines": ["only one"]}`}

		_, err := newFormatter(model).FormatLines(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, ai.ErrMalformedResponse)
	})

	t.Run("empty input skips the model", func(t *testing.T) {
		model := &fakeModel{}

		lines, err := newFormatter(model).FormatLines(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, lines)
		assert.Equal(t, 0, model.calls)
	})
}
