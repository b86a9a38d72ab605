//go:build samplerate

package resample

import (
	"fmt"

	"github.com/dh1tw/gosamplerate"
)

// samplerateKernel drives libsamplerate. The converter's output buffer is
// sized to the caller's slice and rebuilt when that grows.
type samplerateKernel struct {
	converter int
	ratio     float64
	src       *gosamplerate.Src
	bufLen    int
}

func newSamplerateKernel(kind Kind, inRate, outRate int) (Kernel, error) {
	var converter int
	switch kind {
	case SincBest:
		converter = gosamplerate.SRC_SINC_BEST_QUALITY
	case SincMedium:
		converter = gosamplerate.SRC_SINC_MEDIUM_QUALITY
	case SincFastest:
		converter = gosamplerate.SRC_SINC_FASTEST
	case ZeroOrderHold:
		converter = gosamplerate.SRC_ZERO_ORDER_HOLD
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	ratio := float64(outRate) / float64(inRate)
	if !gosamplerate.IsValidRatio(ratio) {
		return nil, fmt.Errorf("%w: ratio %.4f", ErrInvalidRate, ratio)
	}
	return &samplerateKernel{converter: converter, ratio: ratio}, nil
}

func (k *samplerateKernel) Process(in, out []float32) (int, error) {
	if k.src == nil || k.bufLen != len(out) {
		if err := k.Close(); err != nil {
			return 0, err
		}
		src, err := gosamplerate.New(k.converter, 1, max(len(out), len(in)))
		if err != nil {
			return 0, fmt.Errorf("libsamplerate: %w", err)
		}
		k.src, k.bufLen = &src, len(out)
	}

	k.src.Reset()
	res, err := k.src.Process(in, k.ratio, true)
	if err != nil {
		return 0, fmt.Errorf("libsamplerate: %w", err)
	}
	// A full buffer means the converter may have had more to write.
	if len(res) >= len(out) {
		return 0, ErrShortBuffer
	}
	return copy(out, res), nil
}

func (k *samplerateKernel) Reset() {
	if k.src != nil {
		k.src.Reset()
	}
}

func (k *samplerateKernel) Close() error {
	if k.src == nil {
		return nil
	}
	err := gosamplerate.Delete(*k.src)
	k.src = nil
	return err
}
