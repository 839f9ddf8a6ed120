package audio

import (
	"testing"
	"time"
)

func constFrame(n int, v int16) []int16 {
	f := make([]int16, n)
	for i := range f {
		if i%2 == 0 {
			f[i] = v
		} else {
			f[i] = -v
		}
	}
	return f
}

func TestFrameLevel(t *testing.T) {
	if got := frameLevel(constFrame(10, 300)); got != 300 {
		t.Errorf("frameLevel = %d, want 300", got)
	}
	if got := frameLevel(nil); got != 0 {
		t.Errorf("frameLevel(nil) = %d", got)
	}
}

func TestAmbientThreshold(t *testing.T) {
	tests := []struct {
		name   string
		levels []int
		floor  int
		want   int
	}{
		{"quiet room keeps floor", []int{10, 20, 30}, 500, 500},
		{"noisy room raises threshold", []int{600, 600}, 500, 900},
		{"no calibration", nil, 500, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ambientThreshold(tt.levels, tt.floor); got != tt.want {
				t.Errorf("ambientThreshold = %d, want %d", got, tt.want)
			}
		})
	}
}

func testCapture() CaptureConfig {
	return CaptureConfig{
		SampleRate:  1000,
		Pause:       300 * time.Millisecond,
		MaxDuration: 2 * time.Second,
	}
}

func TestUtterance_IgnoresLeadingSilence(t *testing.T) {
	u := newUtterance(testCapture(), 100)

	for i := 0; i < 20; i++ {
		if u.push(constFrame(100, 10)) {
			t.Fatal("silence alone must not complete an utterance")
		}
	}
	if len(u.samples) != 0 {
		t.Errorf("recorded %d samples before speech", len(u.samples))
	}
}

func TestUtterance_EndsAfterPause(t *testing.T) {
	u := newUtterance(testCapture(), 100)

	for i := 0; i < 5; i++ {
		if u.push(constFrame(100, 1000)) {
			t.Fatal("completed during speech")
		}
	}
	if u.push(constFrame(100, 10)) || u.push(constFrame(100, 10)) {
		t.Fatal("completed before the pause limit")
	}
	if !u.push(constFrame(100, 10)) {
		t.Fatal("expected completion after 300ms of silence")
	}
	if len(u.samples) != 800 {
		t.Errorf("samples = %d, want 800", len(u.samples))
	}
}

func TestUtterance_SpeechResetsPause(t *testing.T) {
	u := newUtterance(testCapture(), 100)

	u.push(constFrame(100, 1000))
	u.push(constFrame(100, 10))
	u.push(constFrame(100, 10))
	if u.push(constFrame(100, 1000)) {
		t.Fatal("speech must not complete the utterance")
	}
	if u.push(constFrame(100, 10)) {
		t.Fatal("pause counter should have been reset")
	}
}

func TestUtterance_MaxDuration(t *testing.T) {
	u := newUtterance(testCapture(), 100)

	done := false
	frames := 0
	for !done && frames < 100 {
		done = u.push(constFrame(100, 1000))
		frames++
	}
	if !done {
		t.Fatal("continuous speech never hit the duration limit")
	}
	if frames != 20 {
		t.Errorf("frames = %d, want 20", frames)
	}
}
