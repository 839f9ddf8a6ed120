package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV wraps mono 16-bit PCM samples in a WAV container.
func EncodeWAV(samples []int16, sampleRate int) ([]byte, error) {
	f, err := os.CreateTemp("", "voice-notes-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating temp wav: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(s)
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		return nil, fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing temp wav: %w", err)
	}

	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading temp wav: %w", err)
	}
	return data, nil
}
