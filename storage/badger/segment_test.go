package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/distill/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentRepositoryReplaceAndGet(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, newTextDocument("alice", "a\nb"))
	require.NoError(t, err)

	segments := []*core.Segment{
		{SegmentIndex: 0, Text: "a", Position: core.CharPosition(0, 1)},
		{SegmentIndex: 1, Text: "b", Position: core.CharPosition(2, 3)},
	}
	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc.Id, segments))

	got, err := repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Text)
	assert.Equal(t, "b", got[1].Text)
	assert.Equal(t, doc.Id, got[0].DocumentId)
	assert.Equal(t, core.PositionChar, got[0].Position.Kind)
	assert.Equal(t, 2, got[1].Position.Char.Start)
}

func TestSegmentRepositoryReplaceIsIdempotent(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, newTextDocument("alice", "text"))
	require.NoError(t, err)

	first := []*core.Segment{
		{SegmentIndex: 0, Text: "old 0", Position: core.CharPosition(0, 5)},
		{SegmentIndex: 1, Text: "old 1", Position: core.CharPosition(6, 11)},
		{SegmentIndex: 2, Text: "old 2", Position: core.CharPosition(12, 17)},
	}
	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc.Id, first))

	// A retried stage writes a smaller set; no stale rows may survive.
	second := []*core.Segment{
		{SegmentIndex: 0, Text: "new 0", Position: core.CharPosition(0, 5)},
	}
	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc.Id, second))

	got, err := repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new 0", got[0].Text)
}

func TestSegmentRepositoryOrderedByIndex(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, newTextDocument("alice", "text"))
	require.NoError(t, err)

	// Insert out of order; reads must come back sorted.
	var segments []*core.Segment
	for _, idx := range []int{7, 0, 300, 12, 3} {
		segments = append(segments, &core.Segment{
			SegmentIndex: idx,
			Text:         fmt.Sprintf("segment %d", idx),
			Position:     core.CharPosition(idx, idx+1),
		})
	}
	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc.Id, segments))

	got, err := repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].SegmentIndex, got[i].SegmentIndex)
	}
}

func TestSegmentRepositoryIsolationBetweenDocuments(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	doc1, err := repos.Documents.AddDocument(ctx, newTextDocument("alice", "one"))
	require.NoError(t, err)
	doc2, err := repos.Documents.AddDocument(ctx, newTextDocument("alice", "two"))
	require.NoError(t, err)

	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc1.Id, []*core.Segment{
		{SegmentIndex: 0, Text: "one", Position: core.CharPosition(0, 3)},
	}))
	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc2.Id, []*core.Segment{
		{SegmentIndex: 0, Text: "two", Position: core.CharPosition(0, 3)},
	}))

	require.NoError(t, repos.Segments.DeleteSegments(ctx, doc1.Id))

	count1, err := repos.Segments.CountSegments(ctx, doc1.Id)
	require.NoError(t, err)
	assert.Zero(t, count1)

	count2, err := repos.Segments.CountSegments(ctx, doc2.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, count2)
}

func TestSegmentRepositoryTimePositionsRoundTrip(t *testing.T) {
	repos := setupRepos(t)
	ctx := context.Background()

	doc, err := repos.Documents.AddDocument(ctx, &core.Document{
		Owner:      "alice",
		SourceType: core.SourceTypeVideo,
	})
	require.NoError(t, err)

	require.NoError(t, repos.Segments.ReplaceSegments(ctx, doc.Id, []*core.Segment{
		{SegmentIndex: 0, Text: "hello", Position: core.TimePosition(1.5, 3.25)},
	}))

	got, err := repos.Segments.GetSegments(ctx, doc.Id)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Position.Time)
	assert.Equal(t, 1.5, got[0].Position.Time.Start)
	assert.Equal(t, 3.25, got[0].Position.Time.End)
	assert.Nil(t, got[0].Position.Char)
}
