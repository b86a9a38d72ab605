// Package decode turns code grids into smoothed, loopable PCM.
package decode

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Decoder is the inference call: per-layer code rows in, PCM at
// audio.NativeSampleRate out, audio.FragmentSize samples per fragment.
type Decoder interface {
	Decode(ctx context.Context, rows [][]uint32) ([]float32, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, rows [][]uint32) ([]float32, error)

func (f DecoderFunc) Decode(ctx context.Context, rows [][]uint32) ([]float32, error) {
	return f(ctx, rows)
}

// Loader builds a Decoder. It may be slow (weights, warmup).
type Loader func() (Decoder, error)

var ErrUnknownDecoder = errors.New("unknown decoder kind")

// Model is a lazily initialised decoder handle. The first Get runs the
// loader; later calls return the same decoder or the same load error.
type Model struct {
	load   Loader
	logger *zap.Logger

	once sync.Once
	dec  Decoder
	err  error
}

// NewModel wraps load. Nothing is loaded until Get.
func NewModel(load Loader, logger *zap.Logger) *Model {
	return &Model{load: load, logger: logger}
}

// Get returns the loaded decoder. Safe for concurrent use.
func (m *Model) Get() (Decoder, error) {
	m.once.Do(func() {
		m.dec, m.err = m.load()
		if m.err != nil {
			m.err = fmt.Errorf("load decoder: %w", m.err)
			m.logger.Error("Decoder load failed", zap.Error(m.err))
			return
		}
		m.logger.Info("Decoder loaded")
	})
	return m.dec, m.err
}

// LoaderFor maps a configured decoder kind to its loader.
func LoaderFor(kind string, seed int64) (Loader, error) {
	switch kind {
	case "", "tone":
		return func() (Decoder, error) { return NewToneDecoder(seed), nil }, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecoder, kind)
	}
}
