package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	t.Run("valid text document", func(t *testing.T) {
		doc := &Document{SourceType: SourceTypeText, Status: StatusProcessing}
		require.NoError(t, ValidateDocument(doc))
	})

	t.Run("nil document", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument(nil), ErrInvalidDocument)
	})

	t.Run("missing source type", func(t *testing.T) {
		doc := &Document{Status: StatusProcessing}
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidSourceType)
	})

	t.Run("missing status", func(t *testing.T) {
		doc := &Document{SourceType: SourceTypeText}
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidStatus)
	})

	t.Run("video metadata on text document", func(t *testing.T) {
		doc := &Document{SourceType: SourceTypeText, Status: StatusProcessing, Video: &VideoMeta{}}
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("pdf metadata on video document", func(t *testing.T) {
		doc := &Document{SourceType: SourceTypeVideo, Status: StatusProcessing, PDF: &PDFMeta{}}
		assert.ErrorIs(t, ValidateDocument(doc), ErrInvalidDocument)
	})

	t.Run("video document with video metadata", func(t *testing.T) {
		doc := &Document{SourceType: SourceTypeVideo, Status: StatusProcessing, Video: &VideoMeta{Platform: "youtube"}}
		require.NoError(t, ValidateDocument(doc))
	})
}

func TestValidateSegment(t *testing.T) {
	t.Run("valid segment", func(t *testing.T) {
		seg := &Segment{DocumentId: 1, SegmentIndex: 0, Text: "hello", Position: CharPosition(0, 5)}
		require.NoError(t, ValidateSegment(seg))
	})

	t.Run("empty text is allowed", func(t *testing.T) {
		seg := &Segment{DocumentId: 1, SegmentIndex: 1, Text: "", Position: CharPosition(5, 6)}
		require.NoError(t, ValidateSegment(seg))
	})

	t.Run("nil segment", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSegment(nil), ErrInvalidSegment)
	})

	t.Run("negative index", func(t *testing.T) {
		seg := &Segment{SegmentIndex: -1, Position: CharPosition(0, 1)}
		assert.ErrorIs(t, ValidateSegment(seg), ErrInvalidSegment)
	})

	t.Run("invalid position union", func(t *testing.T) {
		seg := &Segment{SegmentIndex: 0, Position: Position{Kind: PositionPage}}
		assert.ErrorIs(t, ValidateSegment(seg), ErrInvalidPosition)
	})
}

func TestValidateKnowledgePoint(t *testing.T) {
	valid := func() *KnowledgePoint {
		return &KnowledgePoint{
			DocumentId:      1,
			Topic:           "Compound interest",
			Excerpt:         "Interest accrues on prior interest.",
			ConfidenceScore: 0.9,
			DisplayOrder:    1,
			Anchor:          SourceAnchor{Position: CharPosition(0, 35)},
		}
	}

	t.Run("valid knowledge point", func(t *testing.T) {
		require.NoError(t, ValidateKnowledgePoint(valid()))
	})

	t.Run("nil knowledge point", func(t *testing.T) {
		assert.ErrorIs(t, ValidateKnowledgePoint(nil), ErrInvalidKnowledgePoint)
	})

	t.Run("empty topic", func(t *testing.T) {
		kp := valid()
		kp.Topic = ""
		assert.ErrorIs(t, ValidateKnowledgePoint(kp), ErrEmptyText)
	})

	t.Run("empty excerpt", func(t *testing.T) {
		kp := valid()
		kp.Excerpt = ""
		assert.ErrorIs(t, ValidateKnowledgePoint(kp), ErrEmptyText)
	})

	t.Run("confidence above one", func(t *testing.T) {
		kp := valid()
		kp.ConfidenceScore = 1.01
		assert.ErrorIs(t, ValidateKnowledgePoint(kp), ErrInvalidKnowledgePoint)
	})

	t.Run("confidence below zero", func(t *testing.T) {
		kp := valid()
		kp.ConfidenceScore = -0.1
		assert.ErrorIs(t, ValidateKnowledgePoint(kp), ErrInvalidKnowledgePoint)
	})

	t.Run("display order zero", func(t *testing.T) {
		kp := valid()
		kp.DisplayOrder = 0
		assert.ErrorIs(t, ValidateKnowledgePoint(kp), ErrInvalidKnowledgePoint)
	})
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusProcessing, StatusCompleted))
	assert.True(t, CanTransition(StatusProcessing, StatusFailed))
	assert.True(t, CanTransition(StatusProcessing, StatusProcessing))
	assert.False(t, CanTransition(StatusCompleted, StatusProcessing))
	assert.False(t, CanTransition(StatusCompleted, StatusFailed))
	assert.False(t, CanTransition(StatusFailed, StatusProcessing))
	assert.False(t, CanTransition(StatusFailed, StatusCompleted))
}
