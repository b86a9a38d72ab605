package output

import (
	"sync"
	"time"

	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

const (
	HeadlessName          = "headless"
	headlessDefaultFrames = 512
)

// Headless paces the synth callback with a ticker and hands each filled
// buffer to a sink. It needs no audio hardware.
type Headless struct {
	sink func(cfg Negotiated, buf []float32)
}

// NewHeadless returns a backend whose buffers are passed to sink, which may
// be nil to discard them. sink runs on the stream goroutine.
func NewHeadless(sink func(cfg Negotiated, buf []float32)) *Headless {
	return &Headless{sink: sink}
}

func (h *Headless) Name() string { return HeadlessName }

func (h *Headless) Devices() ([]Device, error) {
	return []Device{{ID: "null", Name: "Null output", Default: true}}, nil
}

func (h *Headless) Open(cfg StreamConfig, synth Synth, _ func(string)) (Stream, error) {
	n := Negotiated{
		SampleRate:   audio.DefaultDeviceSampleRate,
		Channels:     audio.DefaultDeviceChannels,
		BufferFrames: headlessDefaultFrames,
	}
	if cfg.SampleRate > 0 {
		n.SampleRate = uint32(cfg.SampleRate)
	}
	if cfg.Channels > 0 {
		n.Channels = cfg.Channels
	}
	if cfg.BufferFrames > 0 {
		n.BufferFrames = cfg.BufferFrames
	}

	s := &headlessStream{cfg: n, quit: make(chan struct{})}
	period := time.Duration(n.BufferFrames) * time.Second / time.Duration(n.SampleRate)
	buf := make([]float32, n.BufferFrames*n.Channels)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-s.quit:
				return
			case <-ticker.C:
				synth.Play(n.SampleRate, n.Channels, buf)
				if h.sink != nil {
					h.sink(n, buf)
				}
			}
		}
	}()
	return s, nil
}

func (h *Headless) Close() error { return nil }

type headlessStream struct {
	cfg  Negotiated
	quit chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

func (s *headlessStream) Config() Negotiated { return s.cfg }

func (s *headlessStream) Close() error {
	s.once.Do(func() { close(s.quit) })
	s.wg.Wait()
	return nil
}
