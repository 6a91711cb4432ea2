package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Remote GPU Service
// Runs synthesis on a serverless GPU endpoint (function-as-a-service) when
// no local inference server is available. Cold starts and capacity limits
// make 429/503 common here, so requests retry with exponential backoff.
// ---------------------------------------------------------------------------

const (
	faasTimeout = 300 * time.Second // generous: cold starts load the model

	faasMaxRetries     = 4
	faasBaseRetryDelay = 2 * time.Second
	faasMaxRetryDelay  = 30 * time.Second
)

type RemoteGPUService struct {
	endpoint string
	token    string
	client   *http.Client
}

// Ensure RemoteGPUService implements TTSEngine at compile time.
var _ TTSEngine = (*RemoteGPUService)(nil)

func NewRemoteGPUService(endpoint, token string) *RemoteGPUService {
	return &RemoteGPUService{
		endpoint: endpoint,
		token:    token,
		client: &http.Client{
			Timeout: faasTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type faasRequest struct {
	Text         string  `json:"text"`
	RefAudio     string  `json:"ref_audio,omitempty"`
	RefText      string  `json:"ref_text,omitempty"`
	Speed        float64 `json:"speed,omitempty"`
	OutputFormat string  `json:"output_format,omitempty"`
	SampleRate   int     `json:"sample_rate,omitempty"`
}

type faasResponse struct {
	Audio      string `json:"audio"` // base64
	DurationMs int    `json:"duration_ms"`
	Format     string `json:"format"`
}

// Synthesize runs the job on the remote GPU endpoint with retries and
// exponential backoff on transient failures.
func (s *RemoteGPUService) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	body := faasRequest{
		Text:         req.Text,
		RefText:      req.RefText,
		Speed:        req.Speed,
		OutputFormat: req.OutputFormat,
		SampleRate:   req.SampleRate,
	}
	if len(req.RefAudio) > 0 {
		body.RefAudio = base64.StdEncoding.EncodeToString(req.RefAudio)
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal remote request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= faasMaxRetries; attempt++ {
		if attempt > 0 {
			delay := faasRetryDelay(attempt)
			log.Printf("[RemoteGPU] Retry %d/%d (waiting %v)...", attempt, faasMaxRetries, delay)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("remote synthesis cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, bytes.NewReader(jsonData))
		if err != nil {
			return nil, fmt.Errorf("failed to create remote request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("remote request failed: %w", err)
			if isRetryableError(err) {
				log.Printf("[RemoteGPU] Attempt %d failed (retryable): %v", attempt+1, err)
				continue
			}
			return nil, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("failed to read remote response: %w", readErr)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("remote endpoint returned status %d: %s", resp.StatusCode, string(respBody))
			if isRetryableStatus(resp.StatusCode) {
				log.Printf("[RemoteGPU] Attempt %d returned status %d (retryable)", attempt+1, resp.StatusCode)
				continue
			}
			return nil, lastErr
		}

		var out faasResponse
		if err := json.Unmarshal(respBody, &out); err != nil {
			return nil, fmt.Errorf("failed to parse remote response: %w", err)
		}

		audioData, err := base64.StdEncoding.DecodeString(out.Audio)
		if err != nil {
			return nil, fmt.Errorf("failed to decode remote audio: %w", err)
		}
		if len(audioData) == 0 {
			return nil, fmt.Errorf("remote endpoint returned empty audio")
		}

		durationMs := out.DurationMs
		if durationMs == 0 {
			durationMs = estimateAudioDuration(req.Text, req.Speed)
		}
		format := out.Format
		if format == "" {
			format = req.OutputFormat
		}

		if attempt > 0 {
			log.Printf("[RemoteGPU] Succeeded on attempt %d", attempt+1)
		}

		return &SynthesisResult{
			AudioData:  audioData,
			DurationMs: durationMs,
			Format:     format,
		}, nil
	}

	return nil, fmt.Errorf("remote synthesis failed after %d attempts: %w", faasMaxRetries+1, lastErr)
}

// faasRetryDelay calculates exponential backoff with jitter: base * 2^attempt + random jitter
func faasRetryDelay(attempt int) time.Duration {
	delay := float64(faasBaseRetryDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(faasMaxRetryDelay) {
		delay = float64(faasMaxRetryDelay)
	}
	// Add 0–25% jitter to avoid thundering herd
	jitter := delay * 0.25 * rand.Float64()
	return time.Duration(delay + jitter)
}

// isRetryableError checks if a network-level error is worth retrying
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "broken pipe")
}

// isRetryableStatus checks if an HTTP status code is worth retrying
func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || // 429
		status == http.StatusRequestTimeout || // 408
		status == http.StatusBadGateway || // 502
		status == http.StatusServiceUnavailable || // 503
		status == http.StatusGatewayTimeout // 504
}
