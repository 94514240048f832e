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
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const stderrTailLimit = 512

// FFmpegExtractor extracts and transcodes a video's audio track to mono
// 16kHz WAV, the input format the recognition service expects.
type FFmpegExtractor struct {
	binary  string
	workDir string
	logger  *slog.Logger
}

var _ AudioExtractor = (*FFmpegExtractor)(nil)

// ExtractorOption configures an FFmpegExtractor.
type ExtractorOption func(*FFmpegExtractor) error

// WithBinary sets the ffmpeg binary path.
// Default is "ffmpeg", resolved via PATH.
func WithBinary(path string) ExtractorOption {
	return func(f *FFmpegExtractor) error {
		if path != "" {
			f.binary = path
		}
		return nil
	}
}

// WithWorkDir sets where extracted audio files are written.
// Default is the system temp directory.
func WithWorkDir(dir string) ExtractorOption {
	return func(f *FFmpegExtractor) error {
		if dir != "" {
			f.workDir = dir
		}
		return nil
	}
}

// WithExtractorLogger sets a custom logger.
// Default is slog.Default().
func WithExtractorLogger(logger *slog.Logger) ExtractorOption {
	return func(f *FFmpegExtractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewFFmpegExtractor creates an ffmpeg-based audio extractor.
func NewFFmpegExtractor(opts ...ExtractorOption) (*FFmpegExtractor, error) {
	f := &FFmpegExtractor{
		binary:  "ffmpeg",
		workDir: os.TempDir(),
		logger:  slog.Default().With("component", "ffmpeg"),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ExtractAudio transcodes the source's audio track into a new WAV file and
// returns its path. The caller removes the file when done.
func (f *FFmpegExtractor) ExtractAudio(ctx context.Context, source string) (string, error) {
	outPath := filepath.Join(f.workDir, fmt.Sprintf("distill-asr-%s.wav", uuid.NewString()))

	args := []string{
		"-y",
		"-i", source,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outPath,
	}

	f.logger.Debug("extracting audio", "source", source, "out", outPath)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("%w: %v: %s", ErrTranscodeFailed, err, stderrTail(stderr.String()))
	}

	info, err := os.Stat(outPath)
	if err != nil || info.Size() == 0 {
		os.Remove(outPath)
		return "", fmt.Errorf("%w: ffmpeg produced no audio output", ErrTranscodeFailed)
	}
	return outPath, nil
}

// stderrTail keeps the end of ffmpeg's stderr, which is where the actual
// failure reason lands.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}
