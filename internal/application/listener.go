package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"voice-notes/internal/domain"
)

// Listener produces one utterance of text per call. It fails with
// domain.ErrNoSpeech or domain.ErrServiceUnavailable when nothing usable was heard.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// VoiceListener captures audio from a source and sends it to a transcriber.
type VoiceListener struct {
	audio  AudioSource
	stt    SpeechToText
	logger *slog.Logger
}

func NewVoiceListener(audio AudioSource, stt SpeechToText, logger *slog.Logger) *VoiceListener {
	return &VoiceListener{
		audio:  audio,
		stt:    stt,
		logger: logger,
	}
}

func (v *VoiceListener) Start(ctx context.Context) error {
	v.logger.Info("starting audio source", "source", v.audio.Name())
	if err := v.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	return nil
}

func (v *VoiceListener) Stop() error {
	return v.audio.Stop()
}

func (v *VoiceListener) Listen(ctx context.Context) (string, error) {
	audioData, err := v.audio.NextCommand(ctx)
	if err != nil {
		return "", fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return "", domain.ErrNoSpeech
	}

	if text, isText := isTextCommand(audioData); isText {
		v.logger.Debug("received text command directly", "text", text)
		return text, nil
	}

	v.logger.Debug("received audio", "bytes", len(audioData))

	text, err := v.stt.Transcribe(ctx, audioData)
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrNoSpeech
	}

	v.logger.Debug("transcribed", "text", text)
	return text, nil
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
