package services

import "context"

// ---------------------------------------------------------------------------
// TTSEngine — common interface for text-to-speech backends
// F5-TTS, Coqui, the remote GPU endpoint, and Gemini all implement this so
// the worker can route a job to whichever engine fits the voice model
// without knowing the underlying provider.
// ---------------------------------------------------------------------------

// SynthesisRequest carries everything an engine needs for one utterance.
// RefAudio/RefText are set for cloned voices (zero-shot engines condition on
// a reference recording plus its transcript); Voice is set for stock voices.
type SynthesisRequest struct {
	Text     string
	Voice    string
	RefAudio []byte
	RefText  string

	Speed        float64
	Pitch        float64
	Volume       float64
	OutputFormat string // "wav", "mp3", "flac", "ogg"
	SampleRate   int
}

// SynthesisResult is the common response type from any TTS engine.
type SynthesisResult struct {
	AudioData  []byte
	DurationMs int
	Format     string
}

// TTSEngine is the interface that any synthesis backend must implement.
type TTSEngine interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
}

// estimateAudioDuration approximates speech duration from text length when a
// backend does not report it: ~150 words/min at speed 1.0, scaled by speed.
func estimateAudioDuration(text string, speed float64) int {
	if speed <= 0 {
		speed = 1.0
	}

	words := 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}

	ms := float64(words) * 400.0 / speed
	return int(ms)
}
