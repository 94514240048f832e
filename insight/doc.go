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


// Package insight turns streamed LLM output into incremental insight updates.
//
// The Assembler accumulates raw chunks from a streaming chat call and parses
// each syntactically complete JSON object it sees, emitting only the fields
// that changed since the previous snapshot. The Service drives the full flow
// for one knowledge point: generate lazily on first request, stream updates
// over a bounded channel, and persist the finalized three-part insight with
// usage accounting. SSE helpers frame updates for wire transport, ending with
// a [DONE] sentinel or an error frame.
package insight
