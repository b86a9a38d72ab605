//go:build !samplerate

package resample_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Raikerian/encodec-explorer/internal/resample"
)

func TestSincKindsNeedBuildTag(t *testing.T) {
	for _, k := range []resample.Kind{resample.SincBest, resample.SincMedium, resample.SincFastest, resample.ZeroOrderHold} {
		_, err := resample.New(k, 24000, 48000, 320)
		assert.ErrorIs(t, err, resample.ErrUnsupportedKind, string(k))
	}
}
