package application

import (
	"context"
	"fmt"

	"voice-notes/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// NoopSTT serves text-only setups (the HTTP /text endpoint). Any real audio
// that reaches it is reported as an unavailable service.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(_ context.Context, _ []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set speech.provider to google or whisper: %w", domain.ErrServiceUnavailable)
}
