package core

import "fmt"

// PositionKind discriminates the variants of a Position.
// Each source type has exactly one corresponding kind.
type PositionKind int

const (
	// PositionTime addresses a time range within a video transcript.
	PositionTime PositionKind = iota + 1
	// PositionPage addresses a character span within a PDF page.
	PositionPage
	// PositionChar addresses a character span within raw text.
	PositionChar
)

// String returns the wire name of the position kind.
func (k PositionKind) String() string {
	switch k {
	case PositionTime:
		return "time"
	case PositionPage:
		return "page"
	case PositionChar:
		return "char"
	default:
		return "unknown"
	}
}

// TimeRange is the video position payload, in seconds.
type TimeRange struct {
	Start float64
	End   float64
}

// PageSpan is the PDF position payload: a character span within one page.
type PageSpan struct {
	PageNumber  int
	StartOffset int
	EndOffset   int
}

// CharSpan is the text position payload: a character span within the document.
type CharSpan struct {
	Start int
	End   int
}

// Position is a tagged union addressing a slice of source content.
// Exactly one payload field is populated, matching Kind. Use the
// TimePosition, PagePosition and CharPosition constructors; a zero
// Position is invalid.
type Position struct {
	Kind PositionKind
	Time *TimeRange
	Page *PageSpan
	Char *CharSpan
}

// TimePosition builds a video position covering [start, end] seconds.
func TimePosition(start, end float64) Position {
	return Position{Kind: PositionTime, Time: &TimeRange{Start: start, End: end}}
}

// PagePosition builds a PDF position covering [startOffset, endOffset) on a page.
func PagePosition(pageNumber, startOffset, endOffset int) Position {
	return Position{Kind: PositionPage, Page: &PageSpan{PageNumber: pageNumber, StartOffset: startOffset, EndOffset: endOffset}}
}

// CharPosition builds a text position covering [start, end) characters.
func CharPosition(start, end int) Position {
	return Position{Kind: PositionChar, Char: &CharSpan{Start: start, End: end}}
}

// KindForSource returns the position kind that documents of the given
// source type address their segments with.
func KindForSource(sourceType SourceType) PositionKind {
	switch sourceType {
	case SourceTypeVideo:
		return PositionTime
	case SourceTypePDF:
		return PositionPage
	case SourceTypeText:
		return PositionChar
	default:
		return 0
	}
}

// Validate checks that exactly the payload matching Kind is populated.
func (p Position) Validate() error {
	switch p.Kind {
	case PositionTime:
		if p.Time == nil || p.Page != nil || p.Char != nil {
			return fmt.Errorf("%w: time position requires only a time range", ErrInvalidPosition)
		}
		if p.Time.End < p.Time.Start {
			return fmt.Errorf("%w: time range end before start", ErrInvalidPosition)
		}
	case PositionPage:
		if p.Page == nil || p.Time != nil || p.Char != nil {
			return fmt.Errorf("%w: page position requires only a page span", ErrInvalidPosition)
		}
		if p.Page.PageNumber < 1 || p.Page.EndOffset < p.Page.StartOffset {
			return fmt.Errorf("%w: malformed page span", ErrInvalidPosition)
		}
	case PositionChar:
		if p.Char == nil || p.Time != nil || p.Page != nil {
			return fmt.Errorf("%w: char position requires only a char span", ErrInvalidPosition)
		}
		if p.Char.End < p.Char.Start {
			return fmt.Errorf("%w: char span end before start", ErrInvalidPosition)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidPosition, p.Kind)
	}
	return nil
}
