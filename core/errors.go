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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidSegment indicates a Segment failed validation.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrInvalidKnowledgePoint indicates a KnowledgePoint failed validation.
	ErrInvalidKnowledgePoint = errors.New("invalid knowledge point")

	// ErrInvalidInsight indicates an Insight failed validation.
	ErrInvalidInsight = errors.New("invalid insight")

	// ErrInvalidPosition indicates a Position union has a mismatched tag/payload pair.
	ErrInvalidPosition = errors.New("invalid position")

	// ErrInvalidSourceType indicates an invalid SourceType value.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrInvalidStatus indicates an invalid DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrStatusTransition indicates a disallowed status transition.
	// Status only moves processing -> completed or processing -> failed.
	ErrStatusTransition = errors.New("disallowed status transition")

	// ErrEmptyText indicates a required text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")
)
