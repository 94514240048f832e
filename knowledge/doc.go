// Package knowledge distills a document's segments into ranked knowledge
// points.
//
// The service truncates content to the model's context window, embeds each
// segment in the prompt under a stable identifier, and anchors the returned
// candidates back to source segments. Identifier matches take strict
// precedence over time containment; a candidate neither match can place
// keeps only the model's positional hints. Extraction failures are retried
// with linear backoff before the error is escalated to the orchestrator.
package knowledge
