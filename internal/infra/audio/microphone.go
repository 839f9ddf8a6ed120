//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

type MicrophoneSource struct {
	stream *portaudio.Stream
	frame  []int16
	cfg    CaptureConfig
	logger *slog.Logger
}

func NewMicrophoneSource(cfg CaptureConfig, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		cfg:    cfg,
		frame:  make([]int16, framesPerBuffer),
		logger: logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.cfg.SampleRate), len(m.frame), m.frame)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone ready", "sampleRate", m.cfg.SampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
	return portaudio.Terminate()
}

// NextCommand calibrates against the room noise, then records one utterance.
// The stream only runs while a prompt is waiting for speech.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	if m.stream == nil {
		return nil, fmt.Errorf("microphone not started")
	}

	if err := m.stream.Start(); err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	defer m.stream.Stop()

	threshold, err := m.calibrate(ctx)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("listening", "threshold", threshold)

	u := newUtterance(m.cfg, threshold)
	for {
		if err := m.read(ctx); err != nil {
			return nil, err
		}
		if u.push(m.frame) {
			break
		}
	}

	return EncodeWAV(u.samples, m.cfg.SampleRate)
}

func (m *MicrophoneSource) calibrate(ctx context.Context) (int, error) {
	frames := m.cfg.samples(m.cfg.Calibration) / len(m.frame)

	levels := make([]int, 0, frames)
	for i := 0; i < frames; i++ {
		if err := m.read(ctx); err != nil {
			return 0, err
		}
		levels = append(levels, frameLevel(m.frame))
	}

	return ambientThreshold(levels, m.cfg.SilenceThreshold), nil
}

func (m *MicrophoneSource) read(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := m.stream.Read()
	if err == nil || errors.Is(err, portaudio.InputOverflowed) {
		return nil
	}
	return fmt.Errorf("reading from stream: %w", err)
}
