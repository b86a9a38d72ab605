package decode

import (
	"context"
	"errors"
	"fmt"

	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

// Repeats is how many copies of the grid are decoded so the decoder's
// receptive field settles before the windows that are kept.
const Repeats = 4

var ErrSampleCount = errors.New("decoder returned unexpected sample count")

// Stitcher decodes a grid as a seamless loop of exactly
// Fragments()*audio.FragmentSize samples with zero mean.
type Stitcher struct {
	dec Decoder
}

func NewStitcher(dec Decoder) *Stitcher {
	return &Stitcher{dec: dec}
}

// Decode runs the decoder over the grid tiled Repeats times, crossfades the
// second and third copies and removes the DC offset.
func (s *Stitcher) Decode(ctx context.Context, g codes.Grid) ([]float32, error) {
	size := g.Fragments() * audio.FragmentSize

	samples, err := s.dec.Decode(ctx, g.Repeat(Repeats).Rows())
	if err != nil {
		return nil, err
	}
	if len(samples) != Repeats*size {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSampleCount, len(samples), Repeats*size)
	}

	return Crossfade(samples[size:2*size], samples[2*size:3*size]), nil
}

// Crossfade blends mid1 and mid2 with weight w(i) = i/(n-1) on mid1, then
// subtracts the mean. Position 0 therefore takes mid2 and the last position
// takes mid1. Both inputs must have the same length.
func Crossfade(mid1, mid2 []float32) []float32 {
	n := len(mid1)
	out := make([]float32, n)
	switch n {
	case 0:
		return out
	case 1:
		out[0] = mid2[0]
	default:
		for i := range out {
			w := float32(i) / float32(n-1)
			out[i] = mid1[i]*w + mid2[i]*(1-w)
		}
	}
	audio.RemoveDC(out)
	return out
}
