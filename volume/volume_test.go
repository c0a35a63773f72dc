package volume

import (
	"errors"
	"math/rand"
	"testing"
)

type fakeADC struct {
	raw uint16
	err error
}

func (a fakeADC) Convert() (uint16, error) { return a.raw, a.err }

func TestSamplerNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  uint16
		bits uint
		want uint8
	}{
		{"10-bit max", 1023, 10, 255},
		{"10-bit drops two bits", 0b10_1010_1011, 10, 0b1010_1010},
		{"10-bit zero", 0, 10, 0},
		{"16-bit", 0xABCD, 16, 0xAB},
		{"8-bit", 0x7F, 8, 0x7F},
		{"6-bit", 0x3F, 6, 0xFC},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s := NewSampler(fakeADC{raw: test.raw}, test.bits)
			got, err := s.Sample()
			if err != nil {
				t.Fatalf("Sample: %v", err)
			}
			if got != test.want {
				t.Fatalf("Sample() = %#x, want %#x", got, test.want)
			}
		})
	}
}

func TestSamplerError(t *testing.T) {
	adcErr := errors.New("no conversion")
	s := NewSampler(fakeADC{err: adcErr}, 10)
	if _, err := s.Sample(); !errors.Is(err, adcErr) {
		t.Fatalf("expected wrapped ADC error, got %v", err)
	}
}

func TestFilterAverageBeforeFull(t *testing.T) {
	var f Filter
	// 16 * 100 / 16 = 100 only once the window is full; before that the
	// empty slots drag the average down.
	for i := 1; i <= WindowSize; i++ {
		got := f.Update(100)
		want := uint8(i * 100 / WindowSize)
		if got != want {
			t.Fatalf("after %d samples: average = %d, want %d", i, got, want)
		}
	}
	if got := f.Update(100); got != 100 {
		t.Fatalf("full window average = %d, want 100", got)
	}
}

func TestFilterTruncates(t *testing.T) {
	var f Filter
	for i := 0; i < WindowSize; i++ {
		f.Update(0)
	}
	// 15 / 16 truncates to 0.
	if got := f.Update(15); got != 0 {
		t.Fatalf("average = %d, want 0", got)
	}
}

func TestFilterMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var f Filter
	var history []uint8

	for n := 0; n < 1000; n++ {
		sample := uint8(rng.Intn(256))
		history = append(history, sample)
		got := f.Update(sample)

		start := len(history) - WindowSize
		if start < 0 {
			start = 0
		}
		var sum int
		for _, v := range history[start:] {
			sum += int(v)
		}

		if want := uint8(sum / WindowSize); got != want {
			t.Fatalf("update %d: average = %d, want %d", n, got, want)
		}
		assertSumInvariant(t, &f)
	}
}

func FuzzFilterSumInvariant(f *testing.F) {
	f.Add([]byte{0, 255, 1, 254})
	f.Add(make([]byte, 40))
	f.Fuzz(func(t *testing.T, samples []byte) {
		var filter Filter
		for _, s := range samples {
			filter.Update(s)
			assertSumInvariant(t, &filter)
		}
	})
}

func assertSumInvariant(t *testing.T, f *Filter) {
	t.Helper()

	var sum uint16
	for _, v := range f.Window() {
		sum += uint16(v)
	}
	if sum != f.Sum() {
		t.Fatalf("running sum %d != window sum %d", f.Sum(), sum)
	}
}
