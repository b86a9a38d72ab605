package audio

import "math"

// Mean returns the arithmetic mean of samples, accumulated in float64.
// It returns 0 for an empty slice.
func Mean(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	return sum / float64(len(samples))
}

// RemoveDC subtracts the mean from every sample in place.
func RemoveDC(samples []float32) {
	mean := float32(Mean(samples))
	for i := range samples {
		samples[i] -= mean
	}
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		peak = max(peak, float32(math.Abs(float64(s))))
	}
	return peak
}

// Repeat returns samples concatenated n times.
func Repeat(samples []float32, n int) []float32 {
	out := make([]float32, 0, len(samples)*max(n, 0))
	for i := 0; i < n; i++ {
		out = append(out, samples...)
	}
	return out
}
