package audio

// Format constants shared by the decode, resample and playback layers.
const (
	// Decoder output.
	NativeSampleRate = 24_000 // Hz
	NativeChannels   = 1      // mono
	FragmentSize     = 320    // samples per fragment (one code time step)

	// Device side.
	DefaultDeviceSampleRate = 48_000 // Hz, used when a backend cannot report its own
	DefaultDeviceChannels   = 2
	BytesPerFloat32         = 4
)

// FragmentDuration returns the duration in seconds of n fragments at the native rate.
func FragmentDuration(n int) float64 {
	return float64(n*FragmentSize) / NativeSampleRate
}
