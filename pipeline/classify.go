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


package pipeline

import (
	"errors"

	"github.com/poiesic/distill/core"
	"github.com/poiesic/distill/extract"
	"github.com/poiesic/distill/knowledge"
	"github.com/poiesic/distill/transcript"
)

// contentInvalidErrors are failures caused by the content itself. Retrying
// the job cannot fix them, so the document fails fast on the first attempt.
var contentInvalidErrors = []error{
	core.ErrEmptyText,
	extract.ErrNoExtractableText,
	extract.ErrMarkerNoiseOnly,
	knowledge.ErrNoSegments,
	transcript.ErrUploadFailed,
	transcript.ErrTranscodeFailed,
	transcript.ErrDurationExceeded,
	transcript.ErrSilenceDetected,
	transcript.ErrEmptyTranscript,
}

// isContentInvalid reports whether err is a content error no retry can fix.
// Everything else is treated as transient and handed back to the queue.
func isContentInvalid(err error) bool {
	for _, sentinel := range contentInvalidErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
