package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	t.Run("deterministic for identical content", func(t *testing.T) {
		a := Fingerprint("the quick brown fox")
		b := Fingerprint("the quick brown fox")
		assert.Equal(t, a, b)
	})

	t.Run("different content produces different IDs", func(t *testing.T) {
		a := Fingerprint("the quick brown fox")
		b := Fingerprint("the quick brown fox.")
		assert.NotEqual(t, a, b)
	})

	t.Run("empty content is valid", func(t *testing.T) {
		assert.Equal(t, Fingerprint(""), Fingerprint(""))
	})
}

func TestSourceTypeString(t *testing.T) {
	assert.Equal(t, "video", SourceTypeVideo.String())
	assert.Equal(t, "pdf", SourceTypePDF.String())
	assert.Equal(t, "text", SourceTypeText.String())
	assert.Equal(t, "unknown", SourceType(0).String())
}

func TestDocumentStatusString(t *testing.T) {
	assert.Equal(t, "processing", StatusProcessing.String())
	assert.Equal(t, "completed", StatusCompleted.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "unknown", DocumentStatus(0).String())
}

func TestPositionConstructors(t *testing.T) {
	t.Run("time position", func(t *testing.T) {
		p := TimePosition(1.5, 4.25)
		require.NoError(t, p.Validate())
		assert.Equal(t, PositionTime, p.Kind)
		require.NotNil(t, p.Time)
		assert.Equal(t, 1.5, p.Time.Start)
		assert.Equal(t, 4.25, p.Time.End)
		assert.Nil(t, p.Page)
		assert.Nil(t, p.Char)
	})

	t.Run("page position", func(t *testing.T) {
		p := PagePosition(3, 0, 120)
		require.NoError(t, p.Validate())
		assert.Equal(t, PositionPage, p.Kind)
		require.NotNil(t, p.Page)
		assert.Equal(t, 3, p.Page.PageNumber)
	})

	t.Run("char position", func(t *testing.T) {
		p := CharPosition(10, 42)
		require.NoError(t, p.Validate())
		assert.Equal(t, PositionChar, p.Kind)
		require.NotNil(t, p.Char)
		assert.Equal(t, 10, p.Char.Start)
		assert.Equal(t, 42, p.Char.End)
	})
}

func TestPositionValidate(t *testing.T) {
	t.Run("zero position is invalid", func(t *testing.T) {
		var p Position
		assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
	})

	t.Run("mismatched tag and payload", func(t *testing.T) {
		p := Position{Kind: PositionTime, Char: &CharSpan{Start: 0, End: 5}}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
	})

	t.Run("two payloads on one tag", func(t *testing.T) {
		p := TimePosition(0, 1)
		p.Char = &CharSpan{}
		assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
	})

	t.Run("inverted time range", func(t *testing.T) {
		p := TimePosition(5, 1)
		assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
	})

	t.Run("page below one", func(t *testing.T) {
		p := PagePosition(0, 0, 10)
		assert.ErrorIs(t, p.Validate(), ErrInvalidPosition)
	})
}

func TestKindForSource(t *testing.T) {
	assert.Equal(t, PositionTime, KindForSource(SourceTypeVideo))
	assert.Equal(t, PositionPage, KindForSource(SourceTypePDF))
	assert.Equal(t, PositionChar, KindForSource(SourceTypeText))
	assert.Equal(t, PositionKind(0), KindForSource(SourceType(99)))
}
