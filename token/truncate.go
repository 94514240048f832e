package token

import (
	"errors"
	"strings"

	"github.com/poiesic/distill/core"
)

const (
	// DefaultPromptOverhead is the token budget reserved for the prompt
	// scaffolding around the content (system prompt, instructions, schema).
	DefaultPromptOverhead = 500

	// minPartialTokens is the smallest remaining budget worth spending on a
	// partial final segment. Below this the segment is dropped outright.
	minPartialTokens = 100

	// breakWindow is the fraction of the partial-segment limit within which a
	// sentence-ending break point is acceptable. A break earlier than 80% of
	// the limit wastes too much budget, so we hard-cut instead.
	breakWindow = 0.8

	ellipsis = "..."
)

var (
	// ErrBudgetTooSmall indicates maxTokens does not even cover the prompt overhead.
	ErrBudgetTooSmall = errors.New("token budget smaller than prompt overhead")
)

// sentence-ending punctuation for both Latin and CJK scripts
const sentenceEnders = ".!?。！？…"

// Budgeter truncates content to fit a model context window while preserving
// segment boundaries so that downstream anchoring stays valid.
type Budgeter struct {
	est            Estimator
	promptOverhead int
}

// BudgeterOption configures a Budgeter.
type BudgeterOption func(*Budgeter)

// WithEstimator sets a custom token estimator.
// Default is the conservative heuristic estimator.
func WithEstimator(est Estimator) BudgeterOption {
	return func(b *Budgeter) {
		if est != nil {
			b.est = est
		}
	}
}

// WithPromptOverhead overrides the reserved prompt overhead.
func WithPromptOverhead(tokens int) BudgeterOption {
	return func(b *Budgeter) {
		if tokens >= 0 {
			b.promptOverhead = tokens
		}
	}
}

// NewBudgeter creates a Budgeter with the default heuristic estimator.
func NewBudgeter(opts ...BudgeterOption) *Budgeter {
	b := &Budgeter{
		est:            NewHeuristicEstimator(),
		promptOverhead: DefaultPromptOverhead,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Estimate exposes the underlying estimator.
func (b *Budgeter) Estimate(text string) int {
	return b.est.Estimate(text)
}

// Truncate greedily accumulates whole segments until the budget
// (maxTokens minus the prompt overhead) would be exceeded. If the next
// segment alone does not fit but at least minPartialTokens of budget remain,
// it is cut at the last sentence-ending punctuation before the limit, falling
// back to a hard cut with an ellipsis marker when no good break point exists
// within the final 20% of the limit.
//
// Guarantees: Estimate(text) <= maxTokens - promptOverhead, and the returned
// segments are a prefix of the input (possibly with a final partial segment).
func (b *Budgeter) Truncate(segments []core.Segment, maxTokens int) (string, []core.Segment, error) {
	budget := maxTokens - b.promptOverhead
	if budget <= 0 {
		return "", nil, ErrBudgetTooSmall
	}

	var (
		sb   strings.Builder
		kept []core.Segment
		used int
	)

	for i, seg := range segments {
		piece := seg.Text
		if i > 0 {
			piece = "\n" + piece
		}

		// Per-piece estimates sum to an upper bound on the estimate of the
		// joined text, so accumulating them can never overshoot the budget.
		cost := b.est.Estimate(piece)
		if used+cost <= budget {
			sb.WriteString(piece)
			kept = append(kept, seg)
			used += cost
			continue
		}

		// The next whole segment does not fit. Spend what remains on a
		// partial segment if it is worth the tokens.
		remaining := budget - used
		if remaining >= minPartialTokens {
			// Reserve room for the ellipsis marker and the joining newline.
			partial := b.cutToBudget(seg.Text, remaining-b.est.Estimate(ellipsis)-1)
			if partial != "" {
				prefix := ""
				if i > 0 {
					prefix = "\n"
				}
				sb.WriteString(prefix + partial)
				kept = append(kept, partialSegment(seg, partial))
			}
		}
		break
	}

	return sb.String(), kept, nil
}

// cutToBudget returns the longest prefix of text fitting the token budget,
// preferring to end at sentence punctuation. Returns "" when even a token's
// worth of text does not fit.
func (b *Budgeter) cutToBudget(text string, budget int) string {
	if budget <= 0 {
		return ""
	}

	runes := []rune(text)

	// Binary search the longest rune prefix within budget. Valid because the
	// estimator is monotonic in input length.
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if b.est.Estimate(string(runes[:mid])) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return ""
	}
	limit := lo

	// Look for the last sentence-ending punctuation inside the prefix.
	breakAt := -1
	for i := limit - 1; i >= 0; i-- {
		if strings.ContainsRune(sentenceEnders, runes[i]) {
			breakAt = i
			break
		}
	}

	if breakAt >= 0 && float64(breakAt+1) >= breakWindow*float64(limit) {
		return string(runes[:breakAt+1])
	}
	return string(runes[:limit]) + ellipsis
}

// partialSegment narrows a segment's position to cover only the kept prefix.
// Video timestamps are left untouched: a time range cannot be subdivided
// without re-aligning the transcript.
func partialSegment(seg core.Segment, text string) core.Segment {
	out := seg
	out.Text = text

	n := len([]rune(strings.TrimSuffix(text, ellipsis)))
	switch seg.Position.Kind {
	case core.PositionChar:
		out.Position = core.CharPosition(seg.Position.Char.Start, seg.Position.Char.Start+n)
	case core.PositionPage:
		p := seg.Position.Page
		out.Position = core.PagePosition(p.PageNumber, p.StartOffset, p.StartOffset+n)
	}
	return out
}
