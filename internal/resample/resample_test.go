package resample_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/encodec-explorer/internal/resample"
)

func sine(n int, cycles float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * cycles * float64(i) / float64(n)))
	}
	return out
}

func TestLinearLengthWithinOne(t *testing.T) {
	rates := []int{8000, 22050, 24000, 44100, 48000, 96000, 192000}
	lengths := []int{320, 640, 1280, 333}

	for _, out := range rates {
		for _, l := range lengths {
			r, err := resample.New(resample.Linear, 24000, out, l)
			require.NoError(t, err)

			got, err := r.Process(sine(l, 3))
			require.NoError(t, err)

			want := math.Round(float64(l) * float64(out) / 24000)
			assert.InDelta(t, want, len(got), 1, "24000->%d L=%d", out, l)
		}
	}
}

func TestLinear24kTo48k(t *testing.T) {
	r, err := resample.New(resample.Linear, 24000, 48000, 320)
	require.NoError(t, err)
	defer r.Close()

	in := sine(320, 2)
	out, err := r.Process(in)
	require.NoError(t, err)
	require.Len(t, out, 640)

	// Even output samples land exactly on input samples.
	for i := 0; i < len(in); i++ {
		assert.InDelta(t, in[i], out[2*i], 1e-6)
	}
	// The last odd sample interpolates towards the loop start.
	assert.InDelta(t, (in[319]+in[0])/2, out[639], 1e-6)
}

func TestIdentityRate(t *testing.T) {
	r, err := resample.New(resample.Linear, 24000, 24000, 320)
	require.NoError(t, err)

	in := sine(320, 1)
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := resample.New(resample.Linear, 0, 48000, 320)
	assert.ErrorIs(t, err, resample.ErrInvalidRate)

	_, err = resample.New(resample.Linear, 24000, 48000, 0)
	assert.ErrorIs(t, err, resample.ErrBlockSize)
}

func TestProcessRejectsWrongBlock(t *testing.T) {
	r, err := resample.New(resample.Linear, 24000, 48000, 320)
	require.NoError(t, err)

	_, err = r.Process(make([]float32, 640))
	assert.ErrorIs(t, err, resample.ErrBlockSize)
}

func TestMatches(t *testing.T) {
	r, err := resample.New(resample.Linear, 24000, 48000, 320)
	require.NoError(t, err)

	assert.True(t, r.Matches(48000, 320))
	assert.False(t, r.Matches(44100, 320))
	assert.False(t, r.Matches(48000, 640))

	require.NoError(t, r.Close())
	assert.False(t, r.Matches(48000, 320))
	_, err = r.Process(make([]float32, 320))
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	tests := map[string]struct {
		in      string
		want    resample.Kind
		wantErr bool
	}{
		"empty_defaults": {in: "", want: resample.Linear},
		"linear":         {in: "linear", want: resample.Linear},
		"sinc":           {in: "sinc-best", want: resample.SincBest},
		"zoh":            {in: "zero-order-hold", want: resample.ZeroOrderHold},
		"unknown":        {in: "fft", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := resample.ParseKind(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, resample.ErrUnsupportedKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
