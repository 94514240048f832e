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


// Package storage defines the persistence interfaces and serialization for
// the distillation pipeline's entities.
//
// Four repositories cover the data model: documents, segments, knowledge
// points and insights. Deletions cascade downward so no orphan rows survive
// a document or knowledge point removal. Segment and knowledge point writes
// are full replacements rather than merges, which keeps pipeline stages
// idempotent under the queue's at-least-once delivery.
//
// Concrete implementations live in subpackages; storage/badger provides the
// BadgerDB-backed one used in production and (in-memory) in tests. Stored
// values are JSON-encoded; index values carry raw big-endian IDs so composite
// keys sort correctly.
package storage
