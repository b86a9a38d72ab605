package resample

import "math"

// linearKernel interpolates between neighbouring samples. The input is a
// loop, so the last output samples interpolate towards in[0].
type linearKernel struct {
	inRate, outRate int
}

func newLinearKernel(inRate, outRate int) *linearKernel {
	return &linearKernel{inRate: inRate, outRate: outRate}
}

func (k *linearKernel) Process(in, out []float32) (int, error) {
	l := len(in)
	n := ExpectedLen(l, k.inRate, k.outRate)
	if n > len(out) {
		return 0, ErrShortBuffer
	}
	if l == 0 || n == 0 {
		return 0, nil
	}

	step := float64(l) / float64(n)
	for i := 0; i < n; i++ {
		pos := float64(i) * step
		idx := int(math.Floor(pos))
		frac := float32(pos - float64(idx))
		a := in[idx%l]
		b := in[(idx+1)%l]
		out[i] = a + (b-a)*frac
	}
	return n, nil
}

func (*linearKernel) Reset() {}
func (*linearKernel) Close() error { return nil }
