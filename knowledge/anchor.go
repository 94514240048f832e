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


package knowledge

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/distill/ai"
	"github.com/poiesic/distill/core"
)

// timeTolerance is the slack allowed when matching a candidate's time hints
// against a segment's time range, in seconds.
const timeTolerance = 1.0

// segmentRefID renders the stable identifier embedded in the prompt for a
// segment. The model echoes it back for anchoring.
func segmentRefID(seg core.Segment) string {
	return fmt.Sprintf("s%d", seg.SegmentIndex)
}

// segmentLabel renders the human-readable position shown to the model.
func segmentLabel(seg core.Segment) string {
	switch seg.Position.Kind {
	case core.PositionTime:
		return fmt.Sprintf("%.1fs-%.1fs", seg.Position.Time.Start, seg.Position.Time.End)
	case core.PositionPage:
		return fmt.Sprintf("p%d", seg.Position.Page.PageNumber)
	default:
		return fmt.Sprintf("#%d", seg.SegmentIndex)
	}
}

// buildRefs builds the prompt segment table entries for the kept segments.
func buildRefs(segments []core.Segment) []ai.SegmentRef {
	refs := make([]ai.SegmentRef, len(segments))
	for i, seg := range segments {
		refs[i] = ai.SegmentRef{
			ID:    segmentRefID(seg),
			Label: segmentLabel(seg),
			Text:  seg.Text,
		}
	}
	return refs
}

// anchorCandidate resolves a candidate's source anchor against the segment
// list. An identifier match strictly wins over time containment; when both
// fail, the anchor carries only the model-provided hints (or an empty span
// of the document's position kind when there are none).
func anchorCandidate(sourceType core.SourceType, segments []core.Segment, cand ai.KnowledgeCandidate) core.SourceAnchor {
	if seg, ok := matchByID(segments, cand.SegmentID); ok {
		idx := seg.SegmentIndex
		return core.SourceAnchor{Position: seg.Position, SegmentIndex: &idx}
	}

	if sourceType == core.SourceTypeVideo && cand.StartTime != nil {
		if seg, ok := matchByTime(segments, cand); ok {
			idx := seg.SegmentIndex
			return core.SourceAnchor{Position: seg.Position, SegmentIndex: &idx}
		}
	}

	return core.SourceAnchor{Position: hintPosition(sourceType, cand)}
}

// matchByID finds the segment whose prompt identifier the model echoed back.
func matchByID(segments []core.Segment, refID string) (core.Segment, bool) {
	refID = strings.TrimSpace(refID)
	if !strings.HasPrefix(refID, "s") {
		return core.Segment{}, false
	}
	idx, err := strconv.Atoi(refID[1:])
	if err != nil {
		return core.Segment{}, false
	}

	for _, seg := range segments {
		if seg.SegmentIndex == idx {
			return seg, true
		}
	}
	return core.Segment{}, false
}

// matchByTime finds the first segment whose time range contains the
// candidate's hinted range, with tolerance at both ends.
func matchByTime(segments []core.Segment, cand ai.KnowledgeCandidate) (core.Segment, bool) {
	start := *cand.StartTime
	end := start
	if cand.EndTime != nil {
		end = *cand.EndTime
	}

	for _, seg := range segments {
		if seg.Position.Kind != core.PositionTime {
			continue
		}
		tr := seg.Position.Time
		if start >= tr.Start-timeTolerance && end <= tr.End+timeTolerance {
			return seg, true
		}
	}
	return core.Segment{}, false
}

// hintPosition builds the fallback anchor position when no segment matched.
// Video candidates keep their hinted time range; otherwise the anchor is an
// empty span of the kind matching the source type.
func hintPosition(sourceType core.SourceType, cand ai.KnowledgeCandidate) core.Position {
	if sourceType == core.SourceTypeVideo && cand.StartTime != nil {
		start := *cand.StartTime
		end := start
		if cand.EndTime != nil && *cand.EndTime > start {
			end = *cand.EndTime
		}
		return core.TimePosition(start, end)
	}

	switch core.KindForSource(sourceType) {
	case core.PositionTime:
		return core.TimePosition(0, 0)
	case core.PositionPage:
		return core.PagePosition(1, 0, 0)
	default:
		return core.CharPosition(0, 0)
	}
}
