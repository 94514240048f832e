package mock

import (
	"context"

	"github.com/poiesic/distill/ai"
)

// TranscriptFormatter implements ai.TranscriptFormatter for testing.
// By default it echoes the input lines unchanged.
type TranscriptFormatter struct {
	FormatLinesFunc func(ctx context.Context, lines []string) ([]string, error)

	callCount int
}

var _ ai.TranscriptFormatter = (*TranscriptFormatter)(nil)

// NewTranscriptFormatter creates a mock formatter with echo behavior.
func NewTranscriptFormatter() *TranscriptFormatter {
	return &TranscriptFormatter{}
}

// FormatLines records the call and delegates to FormatLinesFunc when set.
func (m *TranscriptFormatter) FormatLines(ctx context.Context, lines []string) ([]string, error) {
	m.callCount++

	if m.FormatLinesFunc != nil {
		return m.FormatLinesFunc(ctx, lines)
	}

	out := make([]string, len(lines))
	copy(out, lines)
	return out, nil
}

// CallCount returns the number of FormatLines calls.
func (m *TranscriptFormatter) CallCount() int {
	return m.callCount
}

// Reset clears recorded calls and injected behavior.
func (m *TranscriptFormatter) Reset() {
	m.FormatLinesFunc = nil
	m.callCount = 0
}
