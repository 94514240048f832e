package pipeline

import "strings"

const (
	maxTitleLength = 80

	// placeholderTitle is used when no usable title can be derived. Title
	// derivation is decorative and never fails a document.
	placeholderTitle = "Untitled"
)

// deriveTitle takes the first non-empty line of the content, truncated to
// maxTitleLength runes. Falls back to the placeholder.
func deriveTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxTitleLength {
			return string(runes[:maxTitleLength])
		}
		return line
	}
	return placeholderTitle
}
