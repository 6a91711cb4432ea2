package services

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ---------------------------------------------------------------------------
// Whisper Transcription
// Voice samples uploaded for cloning need a reference transcript: the
// synthesis engine conditions on both the reference audio and its text.
// Whisper produces that transcript during clone training.
// ---------------------------------------------------------------------------

type TranscriptionService struct {
	client *openai.Client
}

func NewTranscriptionService(apiKey string) *TranscriptionService {
	return &TranscriptionService{
		client: openai.NewClient(apiKey),
	}
}

// Transcribe sends sample audio to Whisper and returns the spoken text.
// filename is a hint for the API's format detection (e.g. "sample.wav").
func (s *TranscriptionService) Transcribe(ctx context.Context, audioData []byte, filename, language string) (string, error) {
	if filename == "" {
		filename = "sample.wav"
	}

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audioData),
		FilePath: filename,
		Format:   openai.AudioResponseFormatJSON,
	}
	if language != "" {
		req.Language = language
	}

	resp, err := s.client.CreateTranscription(ctx, req)
	if err != nil {
		return "", fmt.Errorf("whisper transcription failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("whisper returned empty transcript")
	}

	log.Printf("[Whisper] Transcribed sample %q (%d bytes audio, text: %q)",
		filename, len(audioData), truncateString(text, 80))

	return text, nil
}

// truncateString truncates a string to maxLen and appends "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
