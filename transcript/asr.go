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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/poiesic/distill/core"
)

const (
	transcriptionPath = "/v1/transcriptions"

	defaultMinPollInterval = 3 * time.Second
	defaultMaxPollInterval = 30 * time.Second
	defaultOverallTimeout  = 10 * time.Minute
	defaultPollBudget      = 5

	// The service's estimate sizes the poll interval and the deadline.
	pollIntervalDivisor   = 10
	overallTimeoutsFactor = 1.5
)

// Remote job statuses.
const (
	statusQueued     = "queued"
	statusProcessing = "processing"
	statusSuccess    = "success"
	statusFailed     = "failed"
)

// Remote failure reason codes, mapped onto the package taxonomy.
const (
	reasonUploadFailed     = "upload_failed"
	reasonTranscodeFailed  = "transcode_failed"
	reasonDurationExceeded = "duration_exceeded"
	reasonNoSpeech         = "no_speech"
)

// ASRClient submits audio to a speech-recognition HTTP service and polls the
// resulting order until it settles. Requests are authenticated with an HMAC
// signature over method, path and timestamp.
type ASRClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string

	minPollInterval time.Duration
	maxPollInterval time.Duration
	overallTimeout  time.Duration
	pollBudget      int

	logger *slog.Logger
	now    func() time.Time
}

var _ Recognizer = (*ASRClient)(nil)

type uploadResponse struct {
	OrderID          string  `json:"orderId"`
	EstimatedSeconds float64 `json:"estimatedSeconds"`
}

type statusResponse struct {
	Status     string `json:"status"`
	FailReason string `json:"failReason,omitempty"`
	Lines      []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"lines,omitempty"`
}

// ASROption configures an ASRClient.
type ASROption func(*ASRClient) error

// WithHTTPClient sets a custom HTTP client.
// Default has a 60s request timeout.
func WithHTTPClient(client *http.Client) ASROption {
	return func(c *ASRClient) error {
		if client != nil {
			c.httpClient = client
		}
		return nil
	}
}

// WithPollBounds clamps the estimate-derived poll interval.
// Defaults are 3s and 30s.
func WithPollBounds(min, max time.Duration) ASROption {
	return func(c *ASRClient) error {
		if min > 0 {
			c.minPollInterval = min
		}
		if max >= c.minPollInterval {
			c.maxPollInterval = max
		}
		return nil
	}
}

// WithOverallTimeout sets the polling deadline used when the service gives no
// processing-time estimate.
// Default is 10m.
func WithOverallTimeout(timeout time.Duration) ASROption {
	return func(c *ASRClient) error {
		if timeout > 0 {
			c.overallTimeout = timeout
		}
		return nil
	}
}

// WithPollBudget sets how many consecutive poll requests may fail before the
// client gives up.
// Default is 5.
func WithPollBudget(attempts int) ASROption {
	return func(c *ASRClient) error {
		if attempts > 0 {
			c.pollBudget = attempts
		}
		return nil
	}
}

// WithASRLogger sets a custom logger.
// Default is slog.Default().
func WithASRLogger(logger *slog.Logger) ASROption {
	return func(c *ASRClient) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewASRClient creates a recognition client for the service at baseURL.
func NewASRClient(baseURL, apiKey, apiSecret string, opts ...ASROption) (*ASRClient, error) {
	if baseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if apiKey == "" || apiSecret == "" {
		return nil, ErrCredentialsRequired
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBaseURLRequired, err)
	}

	c := &ASRClient{
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		baseURL:         baseURL,
		apiKey:          apiKey,
		apiSecret:       apiSecret,
		minPollInterval: defaultMinPollInterval,
		maxPollInterval: defaultMaxPollInterval,
		overallTimeout:  defaultOverallTimeout,
		pollBudget:      defaultPollBudget,
		logger:          slog.Default().With("component", "asr"),
		now:             time.Now,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Transcribe uploads the audio file and polls the order until the service
// reports a terminal status. Definitive failures are mapped to the package
// taxonomy and are never retried here; transient poll errors are swallowed up
// to the poll budget.
func (c *ASRClient) Transcribe(ctx context.Context, audioPath string) ([]core.TranscriptLine, error) {
	order, err := c.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	c.logger.Info("transcription order placed",
		"orderId", order.OrderID, "estimatedSeconds", order.EstimatedSeconds)

	return c.poll(ctx, order)
}

func (c *ASRClient) upload(ctx context.Context, audioPath string) (*uploadResponse, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcriptionPath, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.ContentLength = info.Size()
	req.Header.Set("Content-Type", "audio/wav")
	c.sign(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode, body)
	}

	var order uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUploadFailed, err)
	}
	if order.OrderID == "" {
		return nil, fmt.Errorf("%w: response carries no order id", ErrUploadFailed)
	}
	return &order, nil
}

func (c *ASRClient) poll(ctx context.Context, order *uploadResponse) ([]core.TranscriptLine, error) {
	interval := c.pollInterval(order.EstimatedSeconds)
	timeout := c.pollTimeout(order.EstimatedSeconds)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrPollExhausted, ctx.Err())
		case <-time.After(interval):
		}

		status, err := c.fetchStatus(ctx, order.OrderID)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrPollExhausted, ctx.Err())
			}
			failures++
			if failures >= c.pollBudget {
				return nil, fmt.Errorf("%w: %v", ErrPollExhausted, err)
			}
			c.logger.Warn("poll request failed",
				"orderId", order.OrderID, "failures", failures, "err", err)
			continue
		}
		failures = 0

		switch status.Status {
		case statusQueued, statusProcessing:
			continue
		case statusSuccess:
			return statusLines(status)
		case statusFailed:
			return nil, mapFailure(status.FailReason)
		default:
			// An unrecognized status is treated like a failed request.
			failures++
			if failures >= c.pollBudget {
				return nil, fmt.Errorf("%w: unknown status %q", ErrPollExhausted, status.Status)
			}
		}
	}
}

func (c *ASRClient) fetchStatus(ctx context.Context, orderID string) (*statusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+transcriptionPath+"/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	c.sign(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}
	return &status, nil
}

// pollInterval derives the poll cadence from the service's estimate: a tenth
// of the estimated processing time, clamped to the configured bounds.
func (c *ASRClient) pollInterval(estimatedSeconds float64) time.Duration {
	if estimatedSeconds <= 0 {
		return c.minPollInterval
	}
	interval := time.Duration(estimatedSeconds/pollIntervalDivisor*float64(time.Second))
	if interval < c.minPollInterval {
		return c.minPollInterval
	}
	if interval > c.maxPollInterval {
		return c.maxPollInterval
	}
	return interval
}

// pollTimeout allows 1.5x the estimated processing time, or the fixed default
// when the service gave no estimate.
func (c *ASRClient) pollTimeout(estimatedSeconds float64) time.Duration {
	if estimatedSeconds <= 0 {
		return c.overallTimeout
	}
	return time.Duration(estimatedSeconds*overallTimeoutsFactor*float64(time.Second))
}

// sign authenticates a request: hex HMAC-SHA256 over "METHOD\nPATH\nTIMESTAMP"
// with the API secret.
func (c *ASRClient) sign(req *http.Request) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	fmt.Fprintf(mac, "%s\n%s\n%s", req.Method, req.URL.Path, timestamp)

	req.Header.Set("X-Asr-Key", c.apiKey)
	req.Header.Set("X-Asr-Timestamp", timestamp)
	req.Header.Set("X-Asr-Signature", hex.EncodeToString(mac.Sum(nil)))
}

func statusLines(status *statusResponse) ([]core.TranscriptLine, error) {
	lines := make([]core.TranscriptLine, 0, len(status.Lines))
	for _, line := range status.Lines {
		lines = append(lines, core.TranscriptLine{
			Text:  line.Text,
			Start: line.Start,
			End:   line.End,
		})
	}
	if len(lines) == 0 {
		return nil, ErrEmptyTranscript
	}
	return lines, nil
}

func mapFailure(reason string) error {
	switch reason {
	case reasonUploadFailed:
		return fmt.Errorf("%w: service reported %s", ErrUploadFailed, reason)
	case reasonTranscodeFailed:
		return fmt.Errorf("%w: service reported %s", ErrTranscodeFailed, reason)
	case reasonDurationExceeded:
		return fmt.Errorf("%w: service reported %s", ErrDurationExceeded, reason)
	case reasonNoSpeech:
		return fmt.Errorf("%w: service reported %s", ErrSilenceDetected, reason)
	default:
		return fmt.Errorf("%w: reason %q", ErrRecognitionFailed, reason)
	}
}
