// Package malgo plays the synth through miniaudio, with device selection
// and a forced period size.
package malgo

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

const (
	Name = "malgo"

	// scratchFrames is the smallest callback buffer, in frames.
	scratchFrames = 4096
)

// Backend owns one miniaudio context, created on first use.
type Backend struct {
	logger *zap.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	devices map[string]malgo.DeviceInfo
}

func New(logger *zap.Logger) *Backend {
	return &Backend{logger: logger.Named("malgo"), devices: map[string]malgo.DeviceInfo{}}
}

func (b *Backend) Name() string { return Name }

func (b *Backend) context() (*malgo.AllocatedContext, error) {
	if b.ctx != nil {
		return b.ctx, nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		b.logger.Debug("miniaudio", zap.String("msg", msg))
	})
	if err != nil {
		return nil, fmt.Errorf("init malgo context: %w", err)
	}
	b.ctx = ctx
	return ctx, nil
}

func (b *Backend) Devices() ([]output.Device, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, err := b.context()
	if err != nil {
		return nil, err
	}
	infos, err := ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate playback devices: %w", err)
	}

	devices := make([]output.Device, 0, len(infos))
	for _, info := range infos {
		id := deviceKey(info.ID)
		b.devices[id] = info
		devices = append(devices, output.Device{
			ID:      id,
			Name:    info.Name(),
			Default: info.IsDefault != 0,
		})
	}
	return devices, nil
}

func (b *Backend) Open(cfg output.StreamConfig, synth output.Synth, onError func(string)) (output.Stream, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx, err := b.context()
	if err != nil {
		return nil, err
	}

	dc := malgo.DefaultDeviceConfig(malgo.Playback)
	dc.Playback.Format = malgo.FormatF32
	dc.Playback.Channels = audio.DefaultDeviceChannels
	if cfg.Channels > 0 {
		dc.Playback.Channels = uint32(cfg.Channels)
	}
	dc.SampleRate = uint32(cfg.SampleRate) // 0 lets miniaudio pick the device rate
	dc.PeriodSizeInFrames = uint32(cfg.BufferFrames)
	dc.Alsa.NoMMap = 1
	if cfg.Device != nil {
		info, ok := b.devices[cfg.Device.ID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", output.ErrNoDevice, cfg.Device.Name)
		}
		dc.Playback.DeviceID = info.ID.Pointer()
	}

	s := &stream{synth: synth}
	callbacks := malgo.DeviceCallbacks{
		Data: s.data,
		Stop: func() {
			if !s.closing.Load() {
				onError("playback device stopped unexpectedly")
			}
		},
	}

	device, err := malgo.InitDevice(ctx.Context, dc, callbacks)
	if err != nil {
		return nil, fmt.Errorf("init playback device: %w", err)
	}
	s.device = device
	s.cfg = output.Negotiated{
		SampleRate:   device.SampleRate(),
		Channels:     int(device.PlaybackChannels()),
		BufferFrames: cfg.BufferFrames,
	}
	s.rate = s.cfg.SampleRate
	s.channels = s.cfg.Channels
	s.scratch = make([]float32, max(cfg.BufferFrames, scratchFrames)*s.channels)

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("start playback device: %w", err)
	}
	b.logger.Info("Playback device started",
		zap.Uint32("sample_rate", s.cfg.SampleRate),
		zap.Int("channels", s.cfg.Channels),
		zap.Int("period_frames", cfg.BufferFrames))
	return s, nil
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil
	return err
}

func deviceKey(id malgo.DeviceID) string {
	return hex.EncodeToString(id[:])
}

type stream struct {
	synth    output.Synth
	device   *malgo.Device
	cfg      output.Negotiated
	rate     uint32
	channels int
	scratch  []float32
	closing  atomic.Bool
	once     sync.Once
}

// data fills the period through scratch, in several Play calls when the
// driver asks for more frames than scratch holds. It does not allocate.
func (s *stream) data(out, _ []byte, frameCount uint32) {
	chunk := len(s.scratch) - len(s.scratch)%s.channels
	remaining := int(frameCount) * s.channels
	off := 0
	for remaining > 0 && chunk > 0 {
		n := min(remaining, chunk)
		buf := s.scratch[:n]
		s.synth.Play(s.rate, s.channels, buf)
		off += audio.PutFloat32LE(out[off:], buf)
		remaining -= n
	}
}

func (s *stream) Config() output.Negotiated { return s.cfg }

func (s *stream) Close() error {
	var err error
	s.once.Do(func() {
		s.closing.Store(true)
		err = s.device.Stop()
		s.device.Uninit()
	})
	return err
}
