package transcript

import "errors"

var (
	// ErrExtractorRequired is returned when an audio extractor is not provided.
	ErrExtractorRequired = errors.New("audio extractor required")

	// ErrRecognizerRequired is returned when a speech recognizer is not provided.
	ErrRecognizerRequired = errors.New("speech recognizer required")

	// ErrBaseURLRequired is returned when the recognition service URL is empty.
	ErrBaseURLRequired = errors.New("recognition service base URL required")

	// ErrCredentialsRequired is returned when API credentials are missing.
	ErrCredentialsRequired = errors.New("recognition service credentials required")
)

// Definitive recognition failures. The remote service reported a terminal
// status; retrying the same input cannot succeed.
var (
	// ErrUploadFailed indicates the audio upload was rejected.
	ErrUploadFailed = errors.New("audio upload failed")

	// ErrTranscodeFailed indicates the service (or local ffmpeg) could not
	// decode the audio.
	ErrTranscodeFailed = errors.New("audio transcoding failed")

	// ErrDurationExceeded indicates the audio is longer than the service
	// accepts.
	ErrDurationExceeded = errors.New("audio duration limit exceeded")

	// ErrSilenceDetected indicates the service found no speech in the audio.
	ErrSilenceDetected = errors.New("no speech detected in audio")

	// ErrRecognitionFailed covers terminal service failures outside the
	// specific taxonomy above.
	ErrRecognitionFailed = errors.New("speech recognition failed")
)

var (
	// ErrEmptyTranscript indicates recognition succeeded but produced no
	// usable lines.
	ErrEmptyTranscript = errors.New("transcript has no usable lines")

	// ErrPollExhausted indicates polling gave up: either the overall deadline
	// passed or too many consecutive poll requests failed.
	ErrPollExhausted = errors.New("transcription polling exhausted")
)
