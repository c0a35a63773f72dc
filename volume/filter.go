package volume

// WindowSize is the number of samples the moving average spans.
const WindowSize = 16

// Filter is a moving-average filter over the last WindowSize samples. The
// zero value is ready to use and behaves as if it had seen WindowSize zeros.
type Filter struct {
	window [WindowSize]uint8
	cursor int
	sum    uint16
}

// Update pushes sample into the window and returns the new average. The
// average always divides by WindowSize and truncates, so it reads low until
// the window has filled.
func (f *Filter) Update(sample uint8) uint8 {
	f.sum -= uint16(f.window[f.cursor])
	f.window[f.cursor] = sample
	f.sum += uint16(sample)
	f.cursor = (f.cursor + 1) % WindowSize
	return f.Average()
}

// Average returns the current average without pushing a sample.
func (f *Filter) Average() uint8 {
	return uint8(f.sum / WindowSize)
}

// Sum returns the running sum of the window.
func (f *Filter) Sum() uint16 { return f.sum }

// Window returns a copy of the window slots in storage order.
func (f *Filter) Window() [WindowSize]uint8 { return f.window }
