package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/distill/ai"
)

const knowledgeResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "knowledgePoints": {
      "type": "array",
      "minItems": 3,
      "maxItems": 8,
      "items": {
        "type": "object",
        "properties": {
          "topic": {"type": "string"},
          "excerpt": {"type": "string"},
          "confidence": {"type": "number", "minimum": 0, "maximum": 1},
          "displayOrder": {"type": "integer", "minimum": 1},
          "segmentId": {"type": "string"},
          "startTime": {"type": "number"},
          "endTime": {"type": "number"}
        },
        "required": ["topic", "excerpt"],
        "additionalProperties": false
      }
    }
  },
  "required": ["knowledgePoints"],
  "additionalProperties": false
}`

const knowledgePromptTemplate = `You distill long-form content into its most important knowledge points.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Return between 3 and 8 knowledge points, ranked by importance: displayOrder 1 is the most important.
- topic is a short title for the idea; excerpt is a verbatim or lightly edited quote from the content.
- segmentId must be the identifier of the segment the excerpt came from, copied exactly from the segment table.
- For timed content, startTime and endTime are the seconds range the idea is discussed in.
- confidence is your certainty, from 0 to 1, that this point captures a real idea from the content.
- Do not invent content that is not present in the segments.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const insightPromptTemplate = `You write a deep-dive analysis of one knowledge point from a larger piece of content.

Output ONLY a valid JSON object with exactly these string fields:
{"logic": "...", "hiddenInfo": "...", "extensionOptional": "..."}

- logic: reconstruct the reasoning behind the idea, step by step.
- hiddenInfo: surface assumptions, context or implications the source leaves unstated.
- extensionOptional: suggest how a curious reader could take the idea further.

Write each field as flowing prose. Do not include any text outside the JSON object.`

const formatPromptTemplate = `You clean up raw speech-recognition transcript lines for fluency.

Output ONLY a valid JSON object: {"lines": ["...", "..."]}.

- Return exactly one output line per input line, in the same order.
- Fix punctuation, casing and obvious mis-recognitions; never merge, split, reorder or drop lines.
- Preserve the original language of each line.`

// buildKnowledgeSystemPrompt creates the extraction system prompt with the
// response schema embedded.
func buildKnowledgeSystemPrompt() string {
	return fmt.Sprintf(knowledgePromptTemplate, knowledgeResponseSchema)
}

// buildKnowledgeUserPrompt renders the extraction user prompt: the truncated
// content as the body to distill, followed by the segment table the model
// echoes identifiers from.
func buildKnowledgeUserPrompt(req *ai.KnowledgeRequest) string {
	var sb strings.Builder
	sb.WriteString("Content:\n")
	sb.WriteString(req.Content)
	sb.WriteString("\n\nSegment table:\n")
	sb.WriteString(buildSegmentTable(req.Segments))
	return sb.String()
}

// buildSegmentTable renders the segment table embedded in the extraction user
// prompt, one `id: [label] text` row per segment.
func buildSegmentTable(segments []ai.SegmentRef) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteString(seg.ID)
		sb.WriteString(": [")
		sb.WriteString(seg.Label)
		sb.WriteString("] ")
		sb.WriteString(seg.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// buildInsightUserPrompt renders the knowledge point and its source context.
func buildInsightUserPrompt(req *ai.InsightRequest) string {
	var sb strings.Builder
	sb.WriteString("Knowledge point: ")
	sb.WriteString(req.Topic)
	sb.WriteString("\nExcerpt: ")
	sb.WriteString(req.Excerpt)
	if req.Context != "" {
		sb.WriteString("\n\nSource context:\n")
		sb.WriteString(req.Context)
	}
	return sb.String()
}
