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
// Voice Encoder Service
// Computes a fixed-length speaker embedding from sample audio. Embeddings
// are stored per clone and power the similar-voice search.
// ---------------------------------------------------------------------------

const (
	encoderTimeout     = 60 * time.Second
	EmbeddingDimension = 256
)

type EncoderService struct {
	baseURL string
	client  *http.Client
}

func NewEncoderService(baseURL string) *EncoderService {
	return &EncoderService{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: encoderTimeout,
		},
	}
}

type encoderRequest struct {
	Audio string `json:"audio"` // base64
}

type encoderResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed sends sample audio to the encoder and returns the speaker embedding.
func (s *EncoderService) Embed(ctx context.Context, audioData []byte) ([]float32, error) {
	if len(audioData) == 0 {
		return nil, fmt.Errorf("no audio data to embed")
	}

	reqBody := encoderRequest{
		Audio: base64.StdEncoding.EncodeToString(audioData),
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal encoder request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/api/v1/embed", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("encoder request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read encoder response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("encoder returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var out encoderResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("failed to parse encoder response: %w", err)
	}

	if len(out.Embedding) != EmbeddingDimension {
		return nil, fmt.Errorf("encoder returned embedding of dimension %d, expected %d", len(out.Embedding), EmbeddingDimension)
	}

	log.Printf("[Encoder] Computed embedding from %d bytes of audio", len(audioData))

	return out.Embedding, nil
}
