// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package segment

import (
	"strings"
	"unicode"

	"github.com/poiesic/distill/core"
)

// MaxSegmentLength is the chunking limit, in runes, for a single segment.
// Lines and pages longer than this are split at the limit.
const MaxSegmentLength = 2000

// SplitText splits raw text into ordered char-addressed segments.
//
// The text is split on newlines; runs longer than MaxSegmentLength are further
// chunked at that length. Empty lines are preserved as their own zero-width
// segments, so Reconstruct can rebuild the original input exactly.
// All offsets are rune counts into the original text.
func SplitText(documentID core.ID, text string) []core.Segment {
	var segs []core.Segment

	offset := 0
	index := 0
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		if len(runes) == 0 {
			segs = append(segs, core.Segment{
				DocumentId:   documentID,
				SegmentIndex: index,
				Text:         "",
				Position:     core.CharPosition(offset, offset),
			})
			index++
			offset++ // the newline
			continue
		}

		for start := 0; start < len(runes); start += MaxSegmentLength {
			end := min(start+MaxSegmentLength, len(runes))
			segs = append(segs, core.Segment{
				DocumentId:   documentID,
				SegmentIndex: index,
				Text:         string(runes[start:end]),
				Position:     core.CharPosition(offset+start, offset+end),
			})
			index++
		}
		offset += len(runes) + 1 // line plus its newline
	}

	return segs
}

// Reconstruct rebuilds the original text of a text-mode document from its
// segments. Gaps between adjacent char spans are the newlines the splitter
// consumed. This is the round-trip inverse of SplitText.
func Reconstruct(segments []core.Segment) string {
	var sb strings.Builder

	pos := 0
	for _, seg := range segments {
		if seg.Position.Kind != core.PositionChar {
			continue
		}
		for pos < seg.Position.Char.Start {
			sb.WriteByte('\n')
			pos++
		}
		sb.WriteString(seg.Text)
		pos = seg.Position.Char.Start + len([]rune(seg.Text))
	}

	return sb.String()
}

// SplitPages splits per-page PDF text into ordered page-addressed segments.
// Pages are numbered from 1. Pages with no extractable text are skipped.
// Each page's text is chunked at MaxSegmentLength; offsets are rune counts
// within the page.
func SplitPages(documentID core.ID, pages []string) []core.Segment {
	var segs []core.Segment

	index := 0
	for pageIdx, page := range pages {
		if strings.TrimSpace(page) == "" {
			continue
		}

		runes := []rune(page)
		for start := 0; start < len(runes); start += MaxSegmentLength {
			end := min(start+MaxSegmentLength, len(runes))
			segs = append(segs, core.Segment{
				DocumentId:   documentID,
				SegmentIndex: index,
				Text:         string(runes[start:end]),
				Position:     core.PagePosition(pageIdx+1, start, end),
			})
			index++
		}
	}

	return segs
}

// SplitTranscript turns transcript lines into ordered time-addressed segments,
// one segment per line. Timestamps are carried through unchanged; any fluency
// rewriting of the text must happen before this call and must not touch them.
func SplitTranscript(documentID core.ID, lines []core.TranscriptLine) []core.Segment {
	segs := make([]core.Segment, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		segs = append(segs, core.Segment{
			DocumentId:   documentID,
			SegmentIndex: len(segs),
			Text:         line.Text,
			Position:     core.TimePosition(line.Start, line.End),
		})
	}

	return segs
}

// WordCount counts words for document metadata: CJK characters count one
// each, runs of non-CJK letters and digits count as one word.
func WordCount(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r):
			count++
			inWord = false
		case isWordRune(r):
			if !inWord {
				count++
				inWord = true
			}
		default:
			inWord = false
		}
	}
	return count
}

func isWordRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
