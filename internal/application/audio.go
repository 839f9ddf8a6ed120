package application

import "context"

// AudioSource yields one captured utterance (or queued payload) per call.
type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}
