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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - SourceType must be valid
//   - Status must be valid
//   - Video metadata present only on video documents, PDF metadata only on PDFs
//
// NOT validated (populated by the pipeline):
//   - Title (empty until derived)
//   - WordCount, ContentHash, Progress (set by stages)
//   - ID (0 is valid from database sequences)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if err := ValidateSourceType(doc.SourceType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := ValidateStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if doc.Video != nil && doc.SourceType != SourceTypeVideo {
		return fmt.Errorf("%w: video metadata on %s document", ErrInvalidDocument, doc.SourceType)
	}
	if doc.PDF != nil && doc.SourceType != SourceTypePDF {
		return fmt.Errorf("%w: pdf metadata on %s document", ErrInvalidDocument, doc.SourceType)
	}

	return nil
}

// ValidateSegment validates a Segment according to domain rules.
//
// Validation rules:
//   - SegmentIndex must be >= 0
//   - Position union must be well-formed
//
// Text may be empty: text mode preserves empty lines as their own segments
// so that concatenation reconstructs the original input exactly.
func ValidateSegment(seg *Segment) error {
	if seg == nil {
		return fmt.Errorf("%w: segment is nil", ErrInvalidSegment)
	}

	if seg.SegmentIndex < 0 {
		return fmt.Errorf("%w: negative segment index %d", ErrInvalidSegment, seg.SegmentIndex)
	}

	if err := seg.Position.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, err)
	}

	return nil
}

// ValidateKnowledgePoint validates a KnowledgePoint according to domain rules.
//
// Validation rules:
//   - Topic and Excerpt must not be empty
//   - ConfidenceScore must be in [0, 1]
//   - DisplayOrder must be >= 1
//   - Anchor position must be well-formed
func ValidateKnowledgePoint(kp *KnowledgePoint) error {
	if kp == nil {
		return fmt.Errorf("%w: knowledge point is nil", ErrInvalidKnowledgePoint)
	}

	if kp.Topic == "" {
		return fmt.Errorf("%w: %w (topic)", ErrInvalidKnowledgePoint, ErrEmptyText)
	}
	if kp.Excerpt == "" {
		return fmt.Errorf("%w: %w (excerpt)", ErrInvalidKnowledgePoint, ErrEmptyText)
	}

	if kp.ConfidenceScore < 0 || kp.ConfidenceScore > 1 {
		return fmt.Errorf("%w: confidence %g outside [0,1]", ErrInvalidKnowledgePoint, kp.ConfidenceScore)
	}

	if kp.DisplayOrder < 1 {
		return fmt.Errorf("%w: display order %d below 1", ErrInvalidKnowledgePoint, kp.DisplayOrder)
	}

	if err := kp.Anchor.Position.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidKnowledgePoint, err)
	}

	return nil
}

// ValidateSourceType validates that a SourceType has a valid value.
func ValidateSourceType(sourceType SourceType) error {
	if sourceType != SourceTypeVideo && sourceType != SourceTypePDF && sourceType != SourceTypeText {
		return fmt.Errorf("%w: value %d", ErrInvalidSourceType, sourceType)
	}
	return nil
}

// ValidateStatus validates that a DocumentStatus has a valid value.
func ValidateStatus(status DocumentStatus) error {
	if status != StatusProcessing && status != StatusCompleted && status != StatusFailed {
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
	return nil
}

// CanTransition reports whether a document status may move from one value
// to another. Completed and failed are terminal; a status never reverses.
func CanTransition(from, to DocumentStatus) bool {
	if from == to {
		return true
	}
	return from == StatusProcessing && (to == StatusCompleted || to == StatusFailed)
}
