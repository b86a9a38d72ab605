//go:build samplerate

package resample_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/encodec-explorer/internal/resample"
)

func TestSamplerateLengths(t *testing.T) {
	for _, k := range []resample.Kind{resample.SincFastest, resample.ZeroOrderHold} {
		for _, rate := range []int{44100, 48000} {
			r, err := resample.New(k, 24000, rate, 320)
			require.NoError(t, err)

			out, err := r.Process(sine(320, 2))
			require.NoError(t, err)
			want := math.Round(320 * float64(rate) / 24000)
			assert.InDelta(t, want, len(out), 1, "%s 24000->%d", k, rate)
			require.NoError(t, r.Close())
		}
	}
}
