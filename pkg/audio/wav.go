package audio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	wavHeaderSize    = 44
	wavBitsPerSample = 16
	wavFormatPCM     = 1
)

// ErrEmptyPCM is returned when asked to write a WAV with no samples.
var ErrEmptyPCM = errors.New("empty sample slice")

// WriteWAV writes interleaved 16-bit PCM as a canonical RIFF/WAVE stream.
func WriteWAV(w io.Writer, samples []int16, sampleRate, channels int) error {
	if len(samples) == 0 {
		return ErrEmptyPCM
	}
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid wav format: rate=%d channels=%d", sampleRate, channels)
	}

	blockAlign := channels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataSize := uint32(len(samples) * 2)

	header := struct {
		Riff          [4]byte
		FileSize      uint32
		Wave          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		Format        uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		Riff:          [4]byte{'R', 'I', 'F', 'F'},
		FileSize:      dataSize + wavHeaderSize - 8,
		Wave:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        wavFormatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(byteRate),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: wavBitsPerSample,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataSize,
	}

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}
	if _, err := w.Write(PCMInt16ToLE(samples)); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

// SaveWAV writes mono float PCM to dir as a timestamped 16-bit WAV file and
// returns the file path.
func SaveWAV(dir, prefix string, pcm []float32, sampleRate int) (string, error) {
	if len(pcm) == 0 {
		return "", ErrEmptyPCM
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	filename := filepath.Join(dir,
		fmt.Sprintf("%s_%s.wav", prefix, time.Now().Format("20060102_150405.000")))

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := WriteWAV(bw, Float32ToInt16(pcm), sampleRate, NativeChannels); err != nil {
		return "", err
	}
	if err := bw.Flush(); err != nil {
		return "", fmt.Errorf("flush wav: %w", err)
	}
	return filename, nil
}
