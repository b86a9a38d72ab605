package oto

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/encodec-explorer/internal/output"
)

type recordingSynth struct {
	rate     uint32
	channels int
	frames   int
}

func (r *recordingSynth) Play(rate uint32, channels int, out []float32) {
	r.rate, r.channels, r.frames = rate, channels, len(out)/channels
	for i := range out {
		out[i] = -0.5
	}
}

var _ output.Backend = (*Backend)(nil)

func TestReadFillsWholeFrames(t *testing.T) {
	synth := &recordingSynth{}
	s := &stream{synth: synth, rate: 44100, channels: 2, scratch: make([]float32, 8)}

	p := make([]byte, 2*4*5+3) // five frames and a partial one
	n, err := s.Read(p)
	require.NoError(t, err)

	assert.Equal(t, 40, n)
	assert.Equal(t, uint32(44100), synth.rate)
	assert.Equal(t, 5, synth.frames)
	assert.Equal(t, float32(-0.5), math.Float32frombits(binary.LittleEndian.Uint32(p[36:])))
}

func TestDevicesReportsDefault(t *testing.T) {
	devices, err := (&Backend{}).Devices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.True(t, devices[0].Default)
}
