package audio

import "time"

// CaptureConfig controls how one utterance is cut out of the microphone stream.
type CaptureConfig struct {
	SampleRate       int
	Calibration      time.Duration
	Pause            time.Duration
	MaxDuration      time.Duration
	SilenceThreshold int
}

func (c CaptureConfig) samples(d time.Duration) int {
	return int(d.Seconds() * float64(c.SampleRate))
}

// frameLevel is the mean absolute amplitude of a frame.
func frameLevel(frame []int16) int {
	if len(frame) == 0 {
		return 0
	}
	var sum int64
	for _, s := range frame {
		v := int64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return int(sum / int64(len(frame)))
}

// ambientThreshold raises the configured floor to 1.5x the average level
// measured while calibrating.
func ambientThreshold(levels []int, floor int) int {
	if len(levels) == 0 {
		return floor
	}
	total := 0
	for _, l := range levels {
		total += l
	}
	if t := total / len(levels) * 3 / 2; t > floor {
		return t
	}
	return floor
}

// utterance accumulates frames from the first loud frame until a long enough
// pause or the duration limit.
type utterance struct {
	threshold    int
	pauseLimit   int
	sampleLimit  int
	started      bool
	silentLength int
	samples      []int16
}

func newUtterance(cfg CaptureConfig, threshold int) *utterance {
	return &utterance{
		threshold:   threshold,
		pauseLimit:  cfg.samples(cfg.Pause),
		sampleLimit: cfg.samples(cfg.MaxDuration),
	}
}

// push consumes one frame and reports whether the utterance is complete.
func (u *utterance) push(frame []int16) bool {
	loud := frameLevel(frame) > u.threshold

	if !u.started {
		if !loud {
			return false
		}
		u.started = true
	}

	u.samples = append(u.samples, frame...)

	if loud {
		u.silentLength = 0
	} else {
		u.silentLength += len(frame)
	}

	if u.pauseLimit > 0 && u.silentLength >= u.pauseLimit {
		return true
	}
	return u.sampleLimit > 0 && len(u.samples) >= u.sampleLimit
}
