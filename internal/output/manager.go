package output

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/pkg/util"
)

const errorBacklog = 16

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Logger   *zap.Logger
	Backends []Backend
	Synth    Synth

	Backend         string
	Device          string
	SampleRate      int
	Channels        int
	BufferFrames    int
	MinBufferFrames int
	MaxBufferFrames int
	RebuildDebounce time.Duration
}

// Manager owns the current stream: device choice, forced buffer size and
// rebuilds. Its methods are called from the UI goroutine; errors from the
// device arrive on Errors.
type Manager struct {
	logger  *zap.Logger
	backend Backend
	synth   Synth
	opts    ManagerOptions

	mu     sync.Mutex
	stream Stream
	device *Device
	forced int

	errs      chan string
	debouncer *util.Debouncer
	quit      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewManager selects the named backend. No stream is opened until Start.
func NewManager(opts ManagerOptions) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var backend Backend
	names := make([]string, 0, len(opts.Backends))
	for _, b := range opts.Backends {
		names = append(names, b.Name())
		if b.Name() == opts.Backend {
			backend = b
		}
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, opts.Backend, strings.Join(names, ", "))
	}

	m := &Manager{
		logger:    logger.With(zap.String("backend", backend.Name())),
		backend:   backend,
		synth:     opts.Synth,
		opts:      opts,
		errs:      make(chan string, errorBacklog),
		debouncer: util.NewDebouncer(opts.RebuildDebounce),
		quit:      make(chan struct{}),
	}
	m.forced = m.clamp(opts.BufferFrames)
	return m, nil
}

// Start picks the configured device and opens the first stream.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.Device != "" {
		dev, err := m.findDevice(m.opts.Device)
		if err != nil {
			m.logger.Warn("Configured device not found, using default",
				zap.String("device", m.opts.Device), zap.Error(err))
		}
		m.device = dev
	}
	if err := m.rebuildLocked(); err != nil {
		return err
	}

	m.wg.Add(1)
	go m.watch()
	return nil
}

func (m *Manager) watch() {
	defer m.wg.Done()
	for {
		select {
		case <-m.quit:
			return
		case <-m.debouncer.C():
			m.debouncer.Fired()
			m.mu.Lock()
			if err := m.rebuildLocked(); err != nil {
				m.report(err.Error())
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) rebuildLocked() error {
	if m.stream != nil {
		if err := m.stream.Close(); err != nil {
			m.logger.Warn("Closing stream failed", zap.Error(err))
		}
		m.stream = nil
	}

	cfg := StreamConfig{
		Device:       m.device,
		SampleRate:   m.opts.SampleRate,
		Channels:     m.opts.Channels,
		BufferFrames: m.forced,
	}
	stream, err := m.backend.Open(cfg, m.synth, m.report)
	if err != nil {
		return fmt.Errorf("open %s stream on %s: %w", m.backend.Name(), m.deviceNameLocked(), err)
	}
	m.stream = stream

	got := stream.Config()
	m.logger.Info("Audio stream started",
		zap.String("device", m.deviceNameLocked()),
		zap.Uint32("sample_rate", got.SampleRate),
		zap.Int("channels", got.Channels),
		zap.Int("buffer_frames", got.BufferFrames),
		zap.Int("forced_buffer_frames", m.forced))
	return nil
}

// report forwards a device error to Errors, dropping it if nobody reads.
func (m *Manager) report(msg string) {
	m.logger.Error("Audio device error", zap.String("error", msg))
	select {
	case m.errs <- msg:
	default:
	}
}

func (m *Manager) findDevice(query string) (*Device, error) {
	devices, err := m.backend.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	q := strings.ToLower(query)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), q) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDevice, query)
}

func (m *Manager) clamp(frames int) int {
	if frames <= 0 {
		return 0
	}
	return min(max(frames, m.opts.MinBufferFrames), m.opts.MaxBufferFrames)
}

// Devices lists the backend's playback devices.
func (m *Manager) Devices() ([]Device, error) {
	return m.backend.Devices()
}

// SetDevice switches to the first device whose name contains query and
// rebuilds the stream. An empty query selects the default device.
func (m *Manager) SetDevice(query string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dev *Device
	if query != "" {
		d, err := m.findDevice(query)
		if err != nil {
			return err
		}
		dev = d
	}
	m.device = dev
	return m.rebuildLocked()
}

// NextDevice cycles to the device after the current one.
func (m *Manager) NextDevice() (string, error) {
	devices, err := m.backend.Devices()
	if err != nil {
		return "", fmt.Errorf("list devices: %w", err)
	}
	if len(devices) == 0 {
		return "", ErrNoDevice
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := 0
	for i, d := range devices {
		if m.device != nil && d.ID == m.device.ID {
			next = (i + 1) % len(devices)
			break
		}
		if m.device == nil && d.Default {
			next = (i + 1) % len(devices)
		}
	}
	m.device = &devices[next]
	if err := m.rebuildLocked(); err != nil {
		return "", err
	}
	return m.device.Name, nil
}

// SetForcedBufferSize requests a buffer of frames (0 = automatic), clamped
// to the configured range. The stream is rebuilt once requests settle.
func (m *Manager) SetForcedBufferSize(frames int) int {
	m.mu.Lock()
	m.forced = m.clamp(frames)
	forced := m.forced
	m.mu.Unlock()

	m.debouncer.Reset()
	return forced
}

func (m *Manager) ForcedBufferSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forced
}

// Config returns the negotiated stream parameters.
func (m *Manager) Config() (Negotiated, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stream == nil {
		return Negotiated{}, false
	}
	return m.stream.Config(), true
}

// DeviceName is the selected device, or "default".
func (m *Manager) DeviceName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceNameLocked()
}

func (m *Manager) deviceNameLocked() string {
	if m.device == nil {
		return "default"
	}
	return m.device.Name
}

// BufferFrames is the frame count the callback is actually being asked
// for, when the synth reports it, else the negotiated size.
func (m *Manager) BufferFrames() int {
	if o, ok := m.synth.(interface{ BufferFrames() int }); ok {
		if n := o.BufferFrames(); n > 0 {
			return n
		}
	}
	cfg, _ := m.Config()
	return cfg.BufferFrames
}

// Errors delivers asynchronous device failures.
func (m *Manager) Errors() <-chan string {
	return m.errs
}

func (m *Manager) BackendName() string {
	return m.backend.Name()
}

// Close stops the stream and releases the backend.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.quit)
		m.wg.Wait()
		m.debouncer.Stop()

		m.mu.Lock()
		if m.stream != nil {
			err = m.stream.Close()
			m.stream = nil
		}
		m.mu.Unlock()

		if berr := m.backend.Close(); err == nil {
			err = berr
		}
	})
	return err
}
