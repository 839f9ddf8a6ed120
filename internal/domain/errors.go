package domain

import "errors"

// Transcription outcomes shared by every speech adapter.
var (
	ErrNoSpeech           = errors.New("no speech detected")
	ErrServiceUnavailable = errors.New("speech service unavailable")
)
