package token

import (
	"strings"
	"testing"

	"github.com/poiesic/distill/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func charSegments(texts ...string) []core.Segment {
	segs := make([]core.Segment, len(texts))
	offset := 0
	for i, text := range texts {
		n := len([]rune(text))
		segs[i] = core.Segment{
			DocumentId:   1,
			SegmentIndex: i,
			Text:         text,
			Position:     core.CharPosition(offset, offset+n),
		}
		offset += n + 1 // newline
	}
	return segs
}

func TestTruncateBudgetTooSmall(t *testing.T) {
	b := NewBudgeter()
	_, _, err := b.Truncate(charSegments("hello"), DefaultPromptOverhead)
	assert.ErrorIs(t, err, ErrBudgetTooSmall)
}

func TestTruncateKeepsEverythingUnderBudget(t *testing.T) {
	b := NewBudgeter()
	segs := charSegments("first paragraph here", "second paragraph here", "third one")

	text, kept, err := b.Truncate(segs, 4000)
	require.NoError(t, err)
	assert.Len(t, kept, 3)
	assert.Equal(t, "first paragraph here\nsecond paragraph here\nthird one", text)
}

func TestTruncateNeverExceedsBudget(t *testing.T) {
	b := NewBudgeter()

	var texts []string
	for i := 0; i < 50; i++ {
		texts = append(texts, strings.Repeat("segment content words here. ", 20))
	}
	segs := charSegments(texts...)

	for _, maxTokens := range []int{600, 800, 1200, 2500} {
		text, kept, err := b.Truncate(segs, maxTokens)
		require.NoError(t, err)
		assert.LessOrEqual(t, b.Estimate(text), maxTokens-DefaultPromptOverhead,
			"maxTokens=%d", maxTokens)
		assert.Less(t, len(kept), len(segs))
	}
}

func TestTruncateKeptIsPrefix(t *testing.T) {
	b := NewBudgeter()

	var texts []string
	for i := 0; i < 30; i++ {
		texts = append(texts, strings.Repeat("alpha beta gamma delta. ", 15))
	}
	segs := charSegments(texts...)

	_, kept, err := b.Truncate(segs, 1500)
	require.NoError(t, err)
	require.NotEmpty(t, kept)

	for i, seg := range kept {
		assert.Equal(t, i, seg.SegmentIndex)
		if i < len(kept)-1 {
			// all but the last kept segment must be intact
			assert.Equal(t, segs[i].Text, seg.Text)
		} else {
			assert.True(t, strings.HasPrefix(segs[i].Text, strings.TrimSuffix(seg.Text, ellipsis)))
		}
	}
}

func TestTruncatePartialPrefersSentenceBreak(t *testing.T) {
	b := NewBudgeter()

	// One huge segment made of many short sentences: wherever the budget lands,
	// a sentence ender sits within the last 20% of the cut window.
	big := strings.Repeat("Short sentence here. ", 200)
	segs := charSegments("lead-in paragraph", big)

	text, kept, err := b.Truncate(segs, 800)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	assert.False(t, strings.HasSuffix(text, ellipsis))
	assert.True(t, strings.HasSuffix(strings.TrimRight(text, " "), "."))
}

func TestTruncatePartialHardCutGetsEllipsis(t *testing.T) {
	b := NewBudgeter()

	// No sentence punctuation at all: must hard-cut with a marker.
	big := strings.Repeat("词语连续不断没有标点 ", 300)
	segs := charSegments(big)

	text, kept, err := b.Truncate(segs, 700)
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.True(t, strings.HasSuffix(text, ellipsis))
	assert.LessOrEqual(t, b.Estimate(text), 700-DefaultPromptOverhead)
}

func TestTruncatePartialSkippedWhenBudgetScraps(t *testing.T) {
	est := NewHeuristicEstimator()
	b := NewBudgeter()

	first := strings.Repeat("fill the budget with words. ", 30)
	segs := charSegments(first, "next segment that will not fit")

	// Size the budget so the first segment fits with under minPartialTokens left.
	maxTokens := DefaultPromptOverhead + est.Estimate(first) + minPartialTokens/2
	_, kept, err := b.Truncate(segs, maxTokens)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestTruncatePartialSegmentPositionNarrowed(t *testing.T) {
	b := NewBudgeter()

	big := strings.Repeat("Position bounds must follow the cut. ", 100)
	segs := charSegments(big)

	_, kept, err := b.Truncate(segs, 800)
	require.NoError(t, err)
	require.Len(t, kept, 1)

	pos := kept[0].Position
	require.Equal(t, core.PositionChar, pos.Kind)
	keptRunes := len([]rune(strings.TrimSuffix(kept[0].Text, ellipsis)))
	assert.Equal(t, pos.Char.Start+keptRunes, pos.Char.End)
	assert.Less(t, pos.Char.End, len([]rune(big)))
}

func TestTruncateVideoTimestampsUntouched(t *testing.T) {
	b := NewBudgeter()

	long := strings.Repeat("spoken words keep flowing without any pause ", 60)
	segs := []core.Segment{
		{DocumentId: 1, SegmentIndex: 0, Text: "intro line", Position: core.TimePosition(0, 4)},
		{DocumentId: 1, SegmentIndex: 1, Text: long, Position: core.TimePosition(4, 600)},
	}

	_, kept, err := b.Truncate(segs, 700)
	require.NoError(t, err)
	require.Len(t, kept, 2)
	require.Equal(t, core.PositionTime, kept[1].Position.Kind)
	assert.Equal(t, 4.0, kept[1].Position.Time.Start)
	assert.Equal(t, 600.0, kept[1].Position.Time.End)
}

func TestTruncateCustomEstimator(t *testing.T) {
	// A one-token-per-rune estimator makes budgets easy to reason about.
	b := NewBudgeter(WithEstimator(runeEstimator{}), WithPromptOverhead(0))

	segs := charSegments("abcde", "fghij")
	text, kept, err := b.Truncate(segs, 5)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
	assert.Equal(t, "abcde", text)
}

type runeEstimator struct{}

func (runeEstimator) Estimate(text string) int { return len([]rune(text)) }
