package services

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// ---------------------------------------------------------------------------
// Gemini TTS Service
// Stock-voice synthesis through the Gemini speech generation API. Used for
// jobs that reference a prebuilt voice name instead of a user's voice clone.
// ---------------------------------------------------------------------------

const (
	defaultGeminiTTSModel = "gemini-2.5-flash-preview-tts"
	defaultGeminiVoice    = "Kore"

	// Gemini speech output is 16-bit mono PCM at 24kHz.
	geminiPCMSampleRate = 24000
	geminiPCMChannels   = 1
	geminiPCMBitDepth   = 16
)

type GeminiTTSService struct {
	apiKey string
	model  string
}

var _ TTSEngine = (*GeminiTTSService)(nil)

func NewGeminiTTSService(apiKey string) *GeminiTTSService {
	return &GeminiTTSService{
		apiKey: apiKey,
		model:  defaultGeminiTTSModel,
	}
}

// Synthesize generates speech for the given text using a prebuilt Gemini
// voice. The request's Voice field selects the voice name; unknown or empty
// names fall back to the default voice.
func (s *GeminiTTSService) Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	voiceName := req.Voice
	if voiceName == "" {
		voiceName = defaultGeminiVoice
	}

	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: voiceName,
				},
			},
		},
	}

	log.Printf("[GeminiTTS] Starting synthesis (model=%s, voice=%s, textLen=%d)", s.model, voiceName, len(req.Text))

	result, err := client.Models.GenerateContent(ctx, s.model, genai.Text(req.Text), config)
	if err != nil {
		return nil, fmt.Errorf("gemini synthesis failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var pcm []byte
	for _, part := range result.Candidates[0].Content.Parts {
		if part.InlineData != nil && strings.HasPrefix(part.InlineData.MIMEType, "audio/") {
			pcm = part.InlineData.Data
			break
		}
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("gemini returned no audio data")
	}

	// Raw PCM duration: bytes / (rate * channels * bytesPerSample)
	durationMs := len(pcm) * 1000 / (geminiPCMSampleRate * geminiPCMChannels * geminiPCMBitDepth / 8)

	audioData := wrapPCMInWAV(pcm, geminiPCMSampleRate, geminiPCMChannels, geminiPCMBitDepth)

	log.Printf("[GeminiTTS] Synthesis complete (%d bytes, ~%dms)", len(audioData), durationMs)

	return &SynthesisResult{
		AudioData:  audioData,
		DurationMs: durationMs,
		Format:     "wav",
	}, nil
}

// wrapPCMInWAV prepends a standard 44-byte RIFF/WAVE header to raw PCM data.
func wrapPCMInWAV(pcm []byte, sampleRate, channels, bitDepth int) []byte {
	byteRate := sampleRate * channels * bitDepth / 8
	blockAlign := channels * bitDepth / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+len(pcm)))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitDepth))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(len(pcm)))

	return append(header, pcm...)
}
