//go:build !samplerate

package resample

import "fmt"

func newSamplerateKernel(kind Kind, _, _ int) (Kernel, error) {
	return nil, fmt.Errorf("%w: %q (build with -tags samplerate)", ErrUnsupportedKind, kind)
}
