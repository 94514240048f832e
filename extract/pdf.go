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


package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"code.sajari.com/docconv"
)

const (
	// minExtractedChars is the minimum total extracted length for a PDF to be
	// considered text-bearing at all.
	minExtractedChars = 100

	// minMeaningfulChars is the minimum length left after stripping page-marker
	// noise. Scanned or garbage PDFs fall under this and are rejected before
	// any LLM tokens are spent on them.
	minMeaningfulChars = 50
)

var (
	// ErrNoExtractableText indicates the PDF carries no usable text layer.
	// Retrying cannot fix this; the document should fail fast.
	ErrNoExtractableText = errors.New("pdf has no extractable text")

	// ErrMarkerNoiseOnly indicates the extracted text is page-marker noise
	// (page numbers, separators) with no real content.
	ErrMarkerNoiseOnly = errors.New("pdf text is only page-marker noise")
)

// pageMarkerPattern matches lines that are page furniture rather than content:
// "Page 3", "Page 3 of 10", "第 3 页", "- 3 -", or a bare number.
var pageMarkerPattern = regexp.MustCompile(`(?mi)^\s*(?:page\s*\d+(?:\s*of\s*\d+)?|第\s*\d+\s*页|-\s*\d+\s*-|\d+)\s*$`)

// PDFResult holds the per-page text and metadata of an extracted PDF.
type PDFResult struct {
	Pages     []string // text per page, form-feed partitioned, may contain empty entries
	PageCount int
	FileSize  int64
	Title     string // from PDF metadata when present, otherwise empty
}

// PDFFile extracts text from the PDF at path and validates it.
func PDFFile(path string) (*PDFResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat pdf: %w", err)
	}

	res, err := PDF(f)
	if err != nil {
		return nil, err
	}
	res.FileSize = info.Size()
	return res, nil
}

// PDF extracts text from PDF content and validates that it is worth
// processing. The extracted body is partitioned into pages on the form-feed
// separators pdftotext emits.
//
// Returns ErrNoExtractableText or ErrMarkerNoiseOnly when the validity gate
// fails; both are content errors that no retry can fix.
func PDF(r io.Reader) (*PDFResult, error) {
	res, err := docconv.Convert(r, "application/pdf", false)
	if err != nil {
		return nil, fmt.Errorf("convert pdf: %w", err)
	}

	pages := strings.Split(res.Body, "\f")
	if err := ValidateText(res.Body); err != nil {
		return nil, err
	}

	return &PDFResult{
		Pages:     pages,
		PageCount: len(pages),
		Title:     strings.TrimSpace(res.Meta["Title"]),
	}, nil
}

// ValidateText applies the extraction validity gate to raw extracted text.
func ValidateText(text string) error {
	if countVisible(text) < minExtractedChars {
		return fmt.Errorf("%w: extracted %d chars, need %d",
			ErrNoExtractableText, countVisible(text), minExtractedChars)
	}

	stripped := pageMarkerPattern.ReplaceAllString(text, "")
	if meaningful := countVisible(stripped); meaningful < minMeaningfulChars {
		return fmt.Errorf("%w: %d meaningful chars, need %d",
			ErrMarkerNoiseOnly, meaningful, minMeaningfulChars)
	}

	return nil
}

// countVisible counts non-whitespace runes.
func countVisible(text string) int {
	count := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
