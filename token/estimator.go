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


package token

import (
	"math"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator estimates the token cost of text for an LLM context window.
// Implementations must be monotonic: appending text never lowers the estimate.
type Estimator interface {
	// Estimate returns a non-negative token count estimate for the text.
	Estimate(text string) int
}

// HeuristicEstimator is a conservative, tokenizer-free estimator.
// CJK characters weigh ~1.5 tokens, Latin words ~0.75, plus a small flat
// per-character overhead. It deliberately overestimates so that budgets
// computed with it never overflow a real context window.
type HeuristicEstimator struct{}

var _ Estimator = HeuristicEstimator{}

// NewHeuristicEstimator creates the default heuristic estimator.
func NewHeuristicEstimator() HeuristicEstimator {
	return HeuristicEstimator{}
}

// Estimate returns a conservative token estimate for the text.
// The result is a monotonic, non-negative function of input length:
// every rune contributes at least the flat overhead, and word merges at
// concatenation boundaries can only lower the word term, so
// Estimate(a+b) <= Estimate(a)+Estimate(b) always holds.
func (HeuristicEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	var cjk, runes int
	for _, r := range text {
		runes++
		if isCJK(r) {
			cjk++
		}
	}

	latinWords := 0
	for _, field := range strings.Fields(text) {
		if !containsCJK(field) {
			latinWords++
		}
	}

	est := float64(cjk)*1.5 + float64(latinWords)*0.75 + float64(runes)*0.1
	return int(math.Ceil(est))
}

// isCJK reports whether the rune is a CJK ideograph or kana.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func containsCJK(s string) bool {
	for _, r := range s {
		if isCJK(r) {
			return true
		}
	}
	return false
}

// TiktokenEstimator estimates tokens with a real BPE tokenizer.
// It is precise for OpenAI-family models but requires encoding data,
// so the heuristic remains the default throughout the pipeline.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

var _ Estimator = (*TiktokenEstimator)(nil)

// NewTiktokenEstimator creates an estimator for the given model name.
func NewTiktokenEstimator(model string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

// Estimate returns the exact token count under the model's encoding.
func (e *TiktokenEstimator) Estimate(text string) int {
	return len(e.enc.Encode(text, nil, nil))
}
