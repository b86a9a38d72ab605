package decode

import (
	"context"
	"fmt"
	"math"

	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

const (
	toneBaseHz    = 55.0
	toneSmoothing = 0.02 // one-pole coefficient per sample
	toneDCScale   = 0.05
	toneGain      = 0.6
)

// ToneDecoder is a deterministic stand-in for a neural decoder. Each layer
// drives an oscillator whose pitch follows its code; layers are summed and run
// through a one-pole smoother that starts from rest, so the first samples of
// every decode carry a settling transient. A small code-dependent DC offset
// is added on top.
type ToneDecoder struct {
	phase0 []float64
}

// NewToneDecoder derives per-layer starting phases from seed.
func NewToneDecoder(seed int64) *ToneDecoder {
	x := uint64(seed)
	phase0 := make([]float64, codes.MaxLayers)
	for i := range phase0 {
		x = splitmix(x)
		phase0[i] = float64(x>>11) / (1 << 53) * 2 * math.Pi
	}
	return &ToneDecoder{phase0: phase0}
}

func (d *ToneDecoder) Decode(ctx context.Context, rows [][]uint32) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows) > len(d.phase0) {
		return nil, fmt.Errorf("%w: %d layers", codes.ErrShape, len(rows))
	}
	fragments := len(rows[0])
	out := make([]float32, fragments*audio.FragmentSize)

	phase := append([]float64(nil), d.phase0[:len(rows)]...)
	var smooth float64
	for f := 0; f < fragments; f++ {
		var dc float64
		for _, row := range rows {
			dc += float64(row[f]) / codes.MaxCode
		}
		dc = dc / float64(len(rows)) * toneDCScale

		for s := 0; s < audio.FragmentSize; s++ {
			var x float64
			for l, row := range rows {
				hz := toneBaseHz * float64(l+1) * math.Pow(2, float64(row[f])/256)
				phase[l] += 2 * math.Pi * hz / audio.NativeSampleRate
				x += math.Sin(phase[l]) / float64(l+1)
			}
			smooth += toneSmoothing * (x*toneGain - smooth)
			out[f*audio.FragmentSize+s] = float32(smooth + dc)
		}
	}
	return out, nil
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	z := x
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
