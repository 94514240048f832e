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


package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/poiesic/distill/core"
)

// Stored values are JSON. Index values carry a bare ID in 8 big-endian bytes
// so composite index keys sort lexicographically.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: id value has %d bytes", ErrTruncatedData, len(data))
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) ([]byte, error) {
	return marshalValue(doc)
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	return unmarshalValue[core.Document](data)
}

// MarshalSegment serializes a Segment to bytes.
func MarshalSegment(segment *core.Segment) ([]byte, error) {
	return marshalValue(segment)
}

// UnmarshalSegment deserializes a Segment from bytes.
func UnmarshalSegment(data []byte) (*core.Segment, error) {
	return unmarshalValue[core.Segment](data)
}

// MarshalKnowledgePoint serializes a KnowledgePoint to bytes.
func MarshalKnowledgePoint(point *core.KnowledgePoint) ([]byte, error) {
	return marshalValue(point)
}

// UnmarshalKnowledgePoint deserializes a KnowledgePoint from bytes.
func UnmarshalKnowledgePoint(data []byte) (*core.KnowledgePoint, error) {
	return unmarshalValue[core.KnowledgePoint](data)
}

// MarshalInsight serializes an Insight to bytes.
func MarshalInsight(insight *core.Insight) ([]byte, error) {
	return marshalValue(insight)
}

// UnmarshalInsight deserializes an Insight from bytes.
func UnmarshalInsight(data []byte) (*core.Insight, error) {
	return unmarshalValue[core.Insight](data)
}

func marshalValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshalValue[T any](data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &v, nil
}
