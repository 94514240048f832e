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


package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/distill/core"
)

const defaultAttemptTimeout = 15 * time.Second

// Captions is a native caption track as fetched from a video platform.
type Captions struct {
	Lines []core.TranscriptLine
	Title string
}

// CaptionProvider fetches a platform's native caption track in one language.
type CaptionProvider interface {
	Fetch(ctx context.Context, platform, videoID, language string) (*Captions, error)
}

// AudioExtractor produces a normalized audio file (mono 16kHz WAV) from a
// video source. The caller removes the returned file when done.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, source string) (string, error)
}

// Recognizer transcribes an audio file into timed lines.
type Recognizer interface {
	Transcribe(ctx context.Context, audioPath string) ([]core.TranscriptLine, error)
}

// Request identifies the video to acquire a transcript for.
type Request struct {
	VideoURL string
	Platform string
	VideoID  string
}

// Result is an acquired transcript with its provenance.
type Result struct {
	Lines    []core.TranscriptLine
	Source   string // core.TranscriptSourceNative or core.TranscriptSourceASR
	Title    string // from caption metadata, empty for ASR
	Language string // caption language that won, empty for ASR
}

// Acquirer obtains a transcript for a video: native captions are tried per
// language preference, and any failure or empty track degrades to speech
// recognition. Recognition failures are terminal.
type Acquirer struct {
	captions   CaptionProvider
	extractor  AudioExtractor
	recognizer Recognizer

	languages      []string
	attemptTimeout time.Duration
	logger         *slog.Logger
}

// AcquirerOption configures an Acquirer.
type AcquirerOption func(*Acquirer) error

// WithCaptionProvider enables the native caption attempt. Without one, every
// acquisition goes straight to speech recognition.
func WithCaptionProvider(provider CaptionProvider) AcquirerOption {
	return func(a *Acquirer) error {
		a.captions = provider
		return nil
	}
}

// WithLanguages sets the caption language preference order.
// Default is zh, zh-Hans, en.
func WithLanguages(languages ...string) AcquirerOption {
	return func(a *Acquirer) error {
		if len(languages) > 0 {
			a.languages = languages
		}
		return nil
	}
}

// WithAttemptTimeout bounds each single caption fetch.
// Default is 15s.
func WithAttemptTimeout(timeout time.Duration) AcquirerOption {
	return func(a *Acquirer) error {
		if timeout > 0 {
			a.attemptTimeout = timeout
		}
		return nil
	}
}

// WithAcquirerLogger sets a custom logger.
// Default is slog.Default().
func WithAcquirerLogger(logger *slog.Logger) AcquirerOption {
	return func(a *Acquirer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAcquirer creates a transcript acquirer. The extractor and recognizer are
// required; a caption provider is optional.
func NewAcquirer(extractor AudioExtractor, recognizer Recognizer, opts ...AcquirerOption) (*Acquirer, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if recognizer == nil {
		return nil, ErrRecognizerRequired
	}

	a := &Acquirer{
		extractor:      extractor,
		recognizer:     recognizer,
		languages:      []string{"zh", "zh-Hans", "en"},
		attemptTimeout: defaultAttemptTimeout,
		logger:         slog.Default().With("component", "transcript"),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Acquire runs the acquisition state machine: the first non-empty native
// caption track wins; otherwise recognition is the last resort.
func (a *Acquirer) Acquire(ctx context.Context, req *Request) (*Result, error) {
	if result := a.tryNativeCaptions(ctx, req); result != nil {
		return result, nil
	}
	return a.recognize(ctx, req)
}

// tryNativeCaptions walks the language preference list. A per-language fetch
// error or empty track moves on to the next language; nil means every attempt
// came up empty.
func (a *Acquirer) tryNativeCaptions(ctx context.Context, req *Request) *Result {
	if a.captions == nil {
		return nil
	}

	for _, language := range a.languages {
		attemptCtx, cancel := context.WithTimeout(ctx, a.attemptTimeout)
		captions, err := a.captions.Fetch(attemptCtx, req.Platform, req.VideoID, language)
		cancel()

		if err != nil {
			a.logger.Warn("caption fetch failed",
				"videoId", req.VideoID, "language", language, "err", err)
			continue
		}
		if captions == nil || !hasSpokenText(captions.Lines) {
			a.logger.Debug("caption track empty",
				"videoId", req.VideoID, "language", language)
			continue
		}

		a.logger.Info("native captions acquired",
			"videoId", req.VideoID, "language", language, "lines", len(captions.Lines))
		return &Result{
			Lines:    captions.Lines,
			Source:   core.TranscriptSourceNative,
			Title:    captions.Title,
			Language: language,
		}
	}
	return nil
}

func (a *Acquirer) recognize(ctx context.Context, req *Request) (*Result, error) {
	a.logger.Warn("no usable native captions, falling back to speech recognition",
		"videoId", req.VideoID)

	audioPath, err := a.extractor.ExtractAudio(ctx, req.VideoURL)
	if err != nil {
		return nil, fmt.Errorf("extracting audio: %w", err)
	}
	defer os.Remove(audioPath)

	lines, err := a.recognizer.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	if !hasSpokenText(lines) {
		return nil, ErrEmptyTranscript
	}

	a.logger.Info("transcript recognized", "videoId", req.VideoID, "lines", len(lines))
	return &Result{
		Lines:  lines,
		Source: core.TranscriptSourceASR,
	}, nil
}

func hasSpokenText(lines []core.TranscriptLine) bool {
	for _, line := range lines {
		if strings.TrimSpace(line.Text) != "" {
			return true
		}
	}
	return false
}
