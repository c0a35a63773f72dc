package board

import "time"

const syntheticBits = 10

// minSyntheticPeriod is the shortest envelope period the config accepts.
const minSyntheticPeriod = time.Millisecond

// synthetic is a volume ADC that rises and falls linearly over one period.
type synthetic struct {
	period time.Duration
	start  time.Time
	now    func() time.Time
}

func newSynthetic(period Duration) *synthetic {
	return &synthetic{
		period: time.Duration(period),
		start:  time.Now(),
		now:    time.Now,
	}
}

// Convert implements volume.ADC.
func (s *synthetic) Convert() (uint16, error) {
	const full = 1<<syntheticBits - 1

	half := s.period / 2
	if half <= 0 {
		return 0, nil
	}
	elapsed := s.now().Sub(s.start) % s.period
	if elapsed > half {
		elapsed = s.period - elapsed
	}
	return uint16(int64(full) * int64(elapsed) / int64(half)), nil
}
