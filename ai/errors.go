package ai

import "errors"

var (
	// ErrMalformedResponse indicates the model response could not be parsed
	// into the expected JSON envelope. Retryable.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyKnowledge indicates the response parsed but carried no usable
	// knowledge point candidates. Retryable.
	ErrEmptyKnowledge = errors.New("model returned no knowledge points")

	// ErrNoChoices indicates the model returned an empty choice list.
	ErrNoChoices = errors.New("model returned no choices")
)
