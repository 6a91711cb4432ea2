package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// Coqui XTTS Service
// Legacy engine — used when no F5-TTS server is configured. Speaks to a
// Coqui XTTS v2 server, which also conditions on a speaker reference wav.
// ---------------------------------------------------------------------------

const coquiDefaultLanguage = "en"

type CoquiService struct {
	baseURL  string
	language string
	client   *http.Client
}

// Ensure CoquiService implements TTSEngine at compile time.
var _ TTSEngine = (*CoquiService)(nil)

func NewCoquiService(baseURL string) *CoquiService {
	return &CoquiService{
		baseURL:  baseURL,
		language: coquiDefaultLanguage,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

// NewCoquiServiceWithLanguage creates a Coqui service with a default language override.
func NewCoquiServiceWithLanguage(baseURL, language string) *CoquiService {
	if language == "" {
		language = coquiDefaultLanguage
	}
	return &CoquiService{
		baseURL:  baseURL,
		language: language,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
}

type coquiRequest struct {
	Text       string  `json:"text"`
	SpeakerWav string  `json:"speaker_wav"` // base64 reference recording
	Language   string  `json:"language"`
	Speed      float64 `json:"speed,omitempty"`
}

func (s *CoquiService) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	if len(req.RefAudio) == 0 {
		return nil, fmt.Errorf("coqui requires reference audio")
	}

	body := coquiRequest{
		Text:       req.Text,
		SpeakerWav: base64.StdEncoding.EncodeToString(req.RefAudio),
		Language:   s.language,
		Speed:      req.Speed,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal coqui request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/tts", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create coqui request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("coqui request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coqui returned status %d: %s", resp.StatusCode, string(respBody))
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read coqui audio response: %w", err)
	}
	if len(audioData) == 0 {
		return nil, fmt.Errorf("coqui returned empty audio")
	}

	// XTTS always renders 24kHz wav regardless of the requested format;
	// format conversion happens downstream when the job asked for more.
	return &SynthesisResult{
		AudioData:  audioData,
		DurationMs: estimateAudioDuration(req.Text, req.Speed),
		Format:     "wav",
	}, nil
}
