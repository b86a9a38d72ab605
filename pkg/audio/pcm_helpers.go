package audio

import (
	"bytes"
	"encoding/binary"
	"math"
)

// PCMInt16ToLE converts int16 samples to raw little-endian bytes.
func PCMInt16ToLE(samples []int16) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, samples)
	return buf.Bytes()
}

// Float32ToInt16 converts [-1, 1] float samples to int16, clipping anything
// outside the range.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = floatToInt16(s)
	}
	return out
}

// PutFloat32LE packs samples into dst as little-endian IEEE-754 floats and
// returns the number of bytes written. dst must hold 4 bytes per sample;
// extra samples are ignored. It does not allocate.
func PutFloat32LE(dst []byte, samples []float32) int {
	n := min(len(samples), len(dst)/BytesPerFloat32)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(dst[i*BytesPerFloat32:], math.Float32bits(samples[i]))
	}
	return n * BytesPerFloat32
}

func floatToInt16(s float32) int16 {
	v := float64(s) * 32767
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}
