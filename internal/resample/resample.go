// Package resample converts whole native-rate loop buffers to the device
// rate with a pluggable kernel.
package resample

import (
	"errors"
	"fmt"
	"math"
)

// Kind names a conversion kernel.
type Kind string

const (
	Linear        Kind = "linear"
	SincBest      Kind = "sinc-best"
	SincMedium    Kind = "sinc-medium"
	SincFastest   Kind = "sinc-fastest"
	ZeroOrderHold Kind = "zero-order-hold"
)

// maxAttempts bounds grow-and-retry on an undersized output buffer.
const maxAttempts = 4

var (
	ErrInvalidRate      = errors.New("invalid sample rate")
	ErrBlockSize        = errors.New("input length does not match resampler block size")
	ErrShortBuffer      = errors.New("output buffer too small")
	ErrUndersized       = errors.New("output still undersized after retries")
	ErrUnsupportedKind  = errors.New("unsupported resampler kind")
	errKernelUnattached = errors.New("resampler is closed")
)

// Kernel converts one whole block into out and returns the number of samples
// written. It returns ErrShortBuffer when out cannot hold the result.
type Kernel interface {
	Process(in, out []float32) (int, error)
	Reset()
	Close() error
}

// ParseKind validates a configured kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Linear, SincBest, SincMedium, SincFastest, ZeroOrderHold:
		return k, nil
	case "":
		return Linear, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// ExpectedLen is round(l * outRate / inRate).
func ExpectedLen(l, inRate, outRate int) int {
	return int(math.Round(float64(l) * float64(outRate) / float64(inRate)))
}

// Resampler is bound to one (inRate, outRate, blockLen) configuration and
// must be rebuilt when any of them changes. Not safe for concurrent use.
type Resampler struct {
	kind     Kind
	inRate   int
	outRate  int
	blockLen int
	capacity int
	kernel   Kernel
}

// New builds a resampler for blocks of blockLen samples.
func New(kind Kind, inRate, outRate, blockLen int) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("%w: %d -> %d Hz", ErrInvalidRate, inRate, outRate)
	}
	if blockLen <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBlockSize, blockLen)
	}

	var (
		k   Kernel
		err error
	)
	if kind == Linear || kind == "" {
		kind = Linear
		k = newLinearKernel(inRate, outRate)
	} else {
		k, err = newSamplerateKernel(kind, inRate, outRate)
	}
	if err != nil {
		return nil, err
	}
	return newWithKernel(kind, k, inRate, outRate, blockLen), nil
}

func newWithKernel(kind Kind, k Kernel, inRate, outRate, blockLen int) *Resampler {
	return &Resampler{
		kind:     kind,
		inRate:   inRate,
		outRate:  outRate,
		blockLen: blockLen,
		capacity: ExpectedLen(blockLen, inRate, outRate) + 1,
		kernel:   k,
	}
}

func (r *Resampler) Kind() Kind { return r.kind }
func (r *Resampler) OutRate() int { return r.outRate }
func (r *Resampler) BlockLen() int { return r.blockLen }

// Matches reports whether r can be reused for this output rate and length.
func (r *Resampler) Matches(outRate, blockLen int) bool {
	return r != nil && r.kernel != nil && r.outRate == outRate && r.blockLen == blockLen
}

// Process converts in, which must be exactly BlockLen samples, into a newly
// allocated slice.
func (r *Resampler) Process(in []float32) ([]float32, error) {
	if r.kernel == nil {
		return nil, errKernelUnattached
	}
	if len(in) != r.blockLen {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrBlockSize, len(in), r.blockLen)
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		out := make([]float32, r.capacity)
		n, err := r.kernel.Process(in, out)
		if errors.Is(err, ErrShortBuffer) {
			r.capacity *= 2
			r.kernel.Reset()
			continue
		}
		if err != nil {
			return nil, err
		}
		return out[:n], nil
	}
	return nil, fmt.Errorf("%w: capacity %d after %d attempts", ErrUndersized, r.capacity, maxAttempts)
}

// Close releases the kernel. The resampler cannot be used afterwards.
func (r *Resampler) Close() error {
	if r == nil || r.kernel == nil {
		return nil
	}
	err := r.kernel.Close()
	r.kernel = nil
	return err
}
