package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// F5-TTS Service
// Talks to a local F5-TTS inference server to synthesize speech in a cloned
// voice. F5-TTS is zero-shot: every request carries the reference audio and
// its transcript, no per-voice training step.
// ---------------------------------------------------------------------------

const f5SynthesizePath = "/api/v1/tts"

// F5TTSService handles text-to-speech via an F5-TTS inference server.
type F5TTSService struct {
	baseURL string
	client  *http.Client
}

// Ensure F5TTSService implements TTSEngine at compile time.
var _ TTSEngine = (*F5TTSService)(nil)

func NewF5TTSService(baseURL string) *F5TTSService {
	return &F5TTSService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type f5Request struct {
	Text         string  `json:"text"`
	RefAudio     string  `json:"ref_audio"` // base64 reference recording
	RefText      string  `json:"ref_text"`
	Speed        float64 `json:"speed,omitempty"`
	OutputFormat string  `json:"output_format,omitempty"`
	SampleRate   int     `json:"sample_rate,omitempty"`
}

// Synthesize converts text to speech in the reference voice.
// The response body IS the audio file; duration comes from the
// X-Audio-Duration-Ms header when the server reports it.
func (s *F5TTSService) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if len(req.RefAudio) == 0 {
		return nil, fmt.Errorf("f5-tts requires reference audio")
	}

	body := f5Request{
		Text:         req.Text,
		RefAudio:     base64.StdEncoding.EncodeToString(req.RefAudio),
		RefText:      req.RefText,
		Speed:        req.Speed,
		OutputFormat: req.OutputFormat,
		SampleRate:   req.SampleRate,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal f5-tts request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+f5SynthesizePath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create f5-tts request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Printf("[F5-TTS] Synthesizing (textLen=%d, refAudio=%d bytes, speed=%.2f, format=%s)",
		len(req.Text), len(req.RefAudio), req.Speed, req.OutputFormat)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("f5-tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("f5-tts returned status %d: %s", resp.StatusCode, string(respBody))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read f5-tts audio response: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("f5-tts returned empty audio")
	}

	durationMs := estimateAudioDuration(req.Text, req.Speed)
	if h := resp.Header.Get("X-Audio-Duration-Ms"); h != "" {
		var reported int
		if _, err := fmt.Sscanf(h, "%d", &reported); err == nil && reported > 0 {
			durationMs = reported
		}
	}

	log.Printf("[F5-TTS] Speech generated (%d bytes, %dms)", len(audioData), durationMs)

	return &SynthesisResult{
		AudioData:  audioData,
		DurationMs: durationMs,
		Format:     req.OutputFormat,
	}, nil
}
