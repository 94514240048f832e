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


package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Snapshot is the three-part insight document as parsed from the model.
type Snapshot struct {
	Logic             string `json:"logic"`
	HiddenInfo        string `json:"hiddenInfo"`
	ExtensionOptional string `json:"extensionOptional"`
}

// Update carries only the fields that changed since the last emission.
// Nil fields are omitted from the wire format, so a client merging updates
// in order always holds the latest value of every field.
type Update struct {
	Logic             *string `json:"logic,omitempty"`
	HiddenInfo        *string `json:"hiddenInfo,omitempty"`
	ExtensionOptional *string `json:"extensionOptional,omitempty"`
}

// Assembler incrementally parses a streamed insight response. Chunks are
// accumulated until the buffer holds a balanced JSON object; each complete
// object is parsed as a snapshot and diffed against the last one, so callers
// receive an update per changed field rather than per chunk. The producer may
// stream one object across many chunks, or emit increasingly complete
// snapshots of the same object; both resolve to the same update sequence.
type Assembler struct {
	buf    []byte
	last   Snapshot
	parsed bool
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Feed appends chunk to the buffer. When the buffer contains a complete JSON
// object, it is parsed and consumed, and the fields that changed since the
// previous snapshot are returned. Returns nil when no complete object is
// available yet, when the object fails to parse, or when nothing changed.
func (a *Assembler) Feed(chunk []byte) *Update {
	a.buf = append(a.buf, chunk...)

	prev := a.last
	advanced := false
	for {
		end, ok := firstObjectEnd(a.buf)
		if !ok {
			break
		}

		var snap Snapshot
		if err := json.Unmarshal(a.buf[:end], &snap); err != nil {
			// Leave the buffer intact; Finalize reports the parse failure.
			break
		}

		// Consume the parsed span so a following snapshot starts a fresh object.
		a.buf = append(a.buf[:0], a.buf[end:]...)
		a.last = snap
		a.parsed = true
		advanced = true
	}

	if !advanced {
		return nil
	}
	return diffSnapshots(prev, a.last)
}

// Finalize parses whatever remains in the buffer as the authoritative result.
// If the stream ended cleanly on an object boundary, the last parsed snapshot
// is returned. Trailing unparseable content after a successful snapshot is an
// error rather than a silent fallback to the last partial value.
func (a *Assembler) Finalize() (*Snapshot, error) {
	rest := strings.TrimSpace(string(a.buf))

	if rest == "" {
		if !a.parsed {
			return nil, ErrNoObject
		}
		snap := a.last
		return &snap, nil
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(rest), &snap); err != nil {
		if a.parsed {
			return nil, fmt.Errorf("%w: %w", ErrFinalParse, err)
		}
		return nil, fmt.Errorf("%w: unparseable trailing content", ErrNoObject)
	}

	a.last = snap
	a.parsed = true
	return &snap, nil
}

// ParseFinal parses a complete raw response as the authoritative snapshot,
// applying the same object detection and error rules as a streamed Finalize.
func ParseFinal(raw string) (*Snapshot, error) {
	a := NewAssembler()
	a.Feed([]byte(raw))
	return a.Finalize()
}

// firstObjectEnd finds the end index (exclusive) of the first balanced
// {...} span, skipping braces inside string literals. The object must start
// the buffer, ignoring leading whitespace; anything else means the producer
// is not streaming JSON.
func firstObjectEnd(buf []byte) (int, bool) {
	start := -1
	for i, ch := range buf {
		if ch == '{' {
			start = i
			break
		}
		if ch != ' ' && ch != '\n' && ch != '\t' && ch != '\r' {
			return 0, false
		}
	}
	if start < 0 {
		return 0, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(buf); i++ {
		ch := buf[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// diffSnapshots returns an update holding each field of next that differs
// from prev, or nil when nothing changed.
func diffSnapshots(prev, next Snapshot) *Update {
	var update Update
	changed := false

	if next.Logic != prev.Logic {
		update.Logic = &next.Logic
		changed = true
	}
	if next.HiddenInfo != prev.HiddenInfo {
		update.HiddenInfo = &next.HiddenInfo
		changed = true
	}
	if next.ExtensionOptional != prev.ExtensionOptional {
		update.ExtensionOptional = &next.ExtensionOptional
		changed = true
	}

	if !changed {
		return nil
	}
	return &update
}
