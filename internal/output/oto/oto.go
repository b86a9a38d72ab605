// Package oto plays the synth through ebitengine/oto. Oto allows a single
// context per process, so the sample rate and channel count of the first
// stream stick for the life of the backend.
package oto

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

const (
	Name          = "oto"
	defaultFrames = 1024
)

type Backend struct {
	logger *zap.Logger

	mu       sync.Mutex
	ctx      *oto.Context
	rate     int
	channels int
}

func New(logger *zap.Logger) *Backend {
	return &Backend{logger: logger.Named("oto")}
}

func (b *Backend) Name() string { return Name }

// Devices reports the single system default output; oto cannot select one.
func (b *Backend) Devices() ([]output.Device, error) {
	return []output.Device{{ID: "default", Name: "System default", Default: true}}, nil
}

func (b *Backend) Open(cfg output.StreamConfig, synth output.Synth, onError func(string)) (output.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frames := cfg.BufferFrames
	if frames <= 0 {
		frames = defaultFrames
	}

	if b.ctx == nil {
		rate := cfg.SampleRate
		if rate <= 0 {
			rate = audio.DefaultDeviceSampleRate
		}
		channels := cfg.Channels
		if channels <= 0 {
			channels = audio.DefaultDeviceChannels
		}
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   rate,
			ChannelCount: channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   time.Duration(frames) * time.Second / time.Duration(rate),
		})
		if err != nil {
			return nil, fmt.Errorf("create oto context: %w", err)
		}
		<-ready
		b.ctx, b.rate, b.channels = ctx, rate, channels
	} else if cfg.SampleRate > 0 && cfg.SampleRate != b.rate {
		b.logger.Warn("Oto cannot change sample rate after start, keeping current",
			zap.Int("current", b.rate), zap.Int("requested", cfg.SampleRate))
	}

	s := &stream{
		synth:    synth,
		rate:     uint32(b.rate),
		channels: b.channels,
		scratch:  make([]float32, frames*b.channels),
		cfg: output.Negotiated{
			SampleRate:   uint32(b.rate),
			Channels:     b.channels,
			BufferFrames: frames,
		},
		onError: onError,
		quit:    make(chan struct{}),
	}
	s.player = b.ctx.NewPlayer(s)
	s.player.SetBufferSize(frames * b.channels * audio.BytesPerFloat32)
	s.player.Play()

	go s.watch()
	return s, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Suspend()
}

type stream struct {
	synth    output.Synth
	player   *oto.Player
	rate     uint32
	channels int
	scratch  []float32
	cfg      output.Negotiated
	onError  func(string)
	quit     chan struct{}
	once     sync.Once
}

// Read is oto's pull callback.
func (s *stream) Read(p []byte) (int, error) {
	frameBytes := s.channels * audio.BytesPerFloat32
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	n := frames * s.channels
	if n > len(s.scratch) {
		s.scratch = make([]float32, n)
	}
	buf := s.scratch[:n]
	s.synth.Play(s.rate, s.channels, buf)
	return audio.PutFloat32LE(p, buf), nil
}

// watch surfaces player errors. Oto reports them by polling only.
func (s *stream) watch() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			if err := s.player.Err(); err != nil {
				s.onError(fmt.Sprintf("oto player: %v", err))
				return
			}
		}
	}
}

func (s *stream) Config() output.Negotiated { return s.cfg }

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		err = s.player.Close()
	})
	return err
}
