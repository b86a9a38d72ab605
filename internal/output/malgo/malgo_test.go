package malgo

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Raikerian/encodec-explorer/internal/output"
)

// rampSynth writes a running frame counter so chunked fills can be checked
// for continuity.
type rampSynth struct {
	frame int
	calls []int
}

func (r *rampSynth) Play(_ uint32, channels int, out []float32) {
	r.calls = append(r.calls, len(out)/channels)
	for f := 0; f+channels <= len(out); f += channels {
		for c := 0; c < channels; c++ {
			out[f+c] = float32(r.frame)
		}
		r.frame++
	}
}

var _ output.Backend = (*Backend)(nil)

func sampleAt(out []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(out[i*4:]))
}

func TestDataCallbackPacksFloat32(t *testing.T) {
	synth := &rampSynth{}
	s := &stream{synth: synth, rate: 48000, channels: 2, scratch: make([]float32, 8)}
	out := make([]byte, 3*2*4)

	s.data(out, nil, 3)

	for i := 0; i < 6; i++ {
		assert.Equal(t, float32(i/2), sampleAt(out, i))
	}
	assert.Equal(t, []int{3}, synth.calls)
}

func TestDataCallbackOversizedPeriodDoesNotAllocate(t *testing.T) {
	synth := &rampSynth{calls: make([]int, 0, 64)}
	s := &stream{synth: synth, rate: 48000, channels: 2, scratch: make([]float32, 8)}
	out := make([]byte, 10*2*4)

	s.data(out, nil, 10)
	assert.Equal(t, []int{4, 4, 2}, synth.calls)
	for i := 0; i < 20; i++ {
		assert.Equal(t, float32(i/2), sampleAt(out, i), "sample %d", i)
	}
	assert.Len(t, s.scratch, 8, "scratch is not regrown")

	synth.calls = synth.calls[:0]
	allocs := testing.AllocsPerRun(20, func() {
		synth.calls = synth.calls[:0]
		s.data(out, nil, 10)
	})
	assert.Zero(t, allocs)
}
