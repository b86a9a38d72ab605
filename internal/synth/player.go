// Package synth loops the latest decoded buffer into the realtime audio
// callback.
package synth

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/resample"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

// errorBacklog is how many unread error messages Errors keeps.
const errorBacklog = 8

var errRepeated = errors.New("resampler already failed for this configuration")

// Options configures a Player.
type Options struct {
	Logger    *zap.Logger
	Resampler resample.Kind
	// InputRate is the rate of buffers passed to UpdateSamples.
	InputRate int
}

type delivery struct {
	raw       []float32
	resampled []float32
	rate      int
}

type failure struct {
	rate, length int
}

// playback is owned by the audio callback and guarded by Player.mu.
type playback struct {
	rate      int
	pos       int
	raw       []float32
	resampled []float32
	stale     bool
	resampler *resample.Resampler
	failed    failure
}

// Player holds the looping playback state. UpdateSamples is called from the
// application side, Play from the audio callback.
type Player struct {
	logger    *zap.Logger
	kind      resample.Kind
	inputRate int

	submitMu sync.Mutex
	prep     *resample.Resampler
	inbox    chan delivery

	mu    sync.Mutex
	state playback

	deviceRate   atomic.Uint32
	bufferFrames atomic.Int64
	current      atomic.Pointer[[]float32]
	errs         chan string
}

func NewPlayer(opts Options) *Player {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rate := opts.InputRate
	if rate <= 0 {
		rate = audio.NativeSampleRate
	}
	kind := opts.Resampler
	if kind == "" {
		kind = resample.Linear
	}
	return &Player{
		logger:    logger,
		kind:      kind,
		inputRate: rate,
		inbox:     make(chan delivery, 1),
		errs:      make(chan string, errorBacklog),
	}
}

// UpdateSamples hands a new loop buffer to the player, which takes ownership
// of pcm. If the device rate is already known the buffer is resampled here so
// the callback only has to swap it in. An unread earlier buffer is dropped.
func (p *Player) UpdateSamples(pcm []float32) {
	if len(pcm) == 0 {
		return
	}

	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	d := delivery{raw: pcm}
	if rate := int(p.deviceRate.Load()); rate > 0 {
		if out, err := p.prepare(rate, pcm); err == nil {
			d.resampled, d.rate = out, rate
		} else {
			// The callback retries and reports the failure.
			p.logger.Debug("Submission-side resample failed", zap.Int("rate", rate), zap.Error(err))
		}
	}
	p.current.Store(&pcm)

	select {
	case <-p.inbox:
	default:
	}
	p.inbox <- d
}

func (p *Player) prepare(rate int, pcm []float32) ([]float32, error) {
	if !p.prep.Matches(rate, len(pcm)) {
		_ = p.prep.Close()
		p.prep = nil
		r, err := resample.New(p.kind, p.inputRate, rate, len(pcm))
		if err != nil {
			return nil, err
		}
		p.prep = r
	}
	return p.prep.Process(pcm)
}

// Play fills out, an interleaved buffer of len(out)/channels frames, with the
// looping buffer. It emits silence until a buffer is available. The steady
// state does not allocate.
func (p *Player) Play(sampleRate uint32, channels int, out []float32) {
	if channels <= 0 || sampleRate == 0 {
		clear(out)
		return
	}
	p.deviceRate.Store(sampleRate)
	p.bufferFrames.Store(int64(len(out) / channels))
	rate := int(sampleRate)

	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.state

	select {
	case d := <-p.inbox:
		s.raw, s.stale = d.raw, true
		if d.resampled != nil && d.rate == rate {
			s.resampled, s.pos, s.stale = d.resampled, 0, false
		}
	default:
	}

	if rate != s.rate {
		if s.rate != 0 {
			p.logger.Info("Device sample rate changed", zap.Int("from", s.rate), zap.Int("to", rate))
		}
		s.rate, s.resampled, s.stale = rate, nil, true
	}

	if s.stale && s.raw != nil {
		s.stale = false
		if res, err := p.resampleLocked(rate); err == nil {
			s.resampled, s.pos = res, 0
		} else {
			p.reportOnce(rate, len(s.raw), err)
		}
	}

	buf := s.resampled
	if len(buf) == 0 {
		clear(out)
		return
	}
	pos := s.pos % len(buf)
	for f := 0; f+channels <= len(out); f += channels {
		v := buf[pos]
		for c := 0; c < channels; c++ {
			out[f+c] = v
		}
		pos++
		if pos == len(buf) {
			pos = 0
		}
	}
	clear(out[len(out)-len(out)%channels:])
	s.pos = pos
}

// resampleLocked converts s.raw for rate, rebuilding the callback-side
// resampler when the rate or block length changed.
func (p *Player) resampleLocked(rate int) ([]float32, error) {
	s := &p.state
	if s.failed == (failure{rate, len(s.raw)}) {
		return nil, errRepeated
	}
	if !s.resampler.Matches(rate, len(s.raw)) {
		_ = s.resampler.Close()
		s.resampler = nil
		r, err := resample.New(p.kind, p.inputRate, rate, len(s.raw))
		if err != nil {
			return nil, err
		}
		s.resampler = r
	}
	return s.resampler.Process(s.raw)
}

func (p *Player) reportOnce(rate, length int, err error) {
	key := failure{rate, length}
	if p.state.failed == key {
		return
	}
	p.state.failed = key
	msg := fmt.Sprintf("resampler %s %d->%d Hz (%d samples): %v", p.kind, p.inputRate, rate, length, err)
	p.logger.Error("Resampler failed", zap.Int("rate", rate), zap.Int("samples", length), zap.Error(err))
	select {
	case p.errs <- msg:
	default:
	}
}

// Snapshot returns the most recently submitted buffer at the input rate, or
// nil. Callers must not modify it.
func (p *Player) Snapshot() []float32 {
	if b := p.current.Load(); b != nil {
		return *b
	}
	return nil
}

// DeviceRate is the sample rate of the last callback, 0 before the first.
func (p *Player) DeviceRate() uint32 {
	return p.deviceRate.Load()
}

// BufferFrames is the frame count of the last callback.
func (p *Player) BufferFrames() int {
	return int(p.bufferFrames.Load())
}

// Errors delivers resampler failures, each configuration once.
func (p *Player) Errors() <-chan string {
	return p.errs
}

// Close releases both resamplers.
func (p *Player) Close() error {
	p.submitMu.Lock()
	_ = p.prep.Close()
	p.prep = nil
	p.submitMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.state.resampler.Close()
	p.state.resampler = nil
	return err
}
