// Package ui is the terminal code editor. Its tick is the frame loop: each
// frame polls the decode worker and forwards new buffers to the player.
package ui

import (
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/internal/worker"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

const (
	smallStep = 1
	largeStep = 16
)

// Decoder is the worker side of the frame loop.
type Decoder interface {
	Submit(g codes.Grid) uint64
	Poll() (worker.Result, error)
}

// Sink receives decoded buffers.
type Sink interface {
	UpdateSamples(pcm []float32)
	Errors() <-chan string
}

// Audio is the stream control surface.
type Audio interface {
	DeviceName() string
	Config() (output.Negotiated, bool)
	BufferFrames() int
	ForcedBufferSize() int
	SetForcedBufferSize(frames int) int
	NextDevice() (string, error)
	Errors() <-chan string
}

// Limits bounds grid editing.
type Limits struct {
	MaxFragments int
	MaxLayers    int
}

type tickMsg time.Time

type exportedMsg struct {
	path string
	err  error
}

type deviceMsg struct {
	name string
	err  error
}

// Model is the bubbletea model.
type Model struct {
	decoder Decoder
	sink    Sink
	audio   Audio

	limits    Limits
	frame     time.Duration
	exportDir string

	grid     codes.Grid
	layer    int
	fragment int

	submitted uint64
	applied   uint64
	waveform  []float32
	elapsed   time.Duration
	cached    bool

	status  string
	warning string
	fatal   string
	width   int
}

// Options configures NewModel.
type Options struct {
	Decoder   Decoder
	Sink      Sink
	Audio     Audio
	Limits    Limits
	FrameRate int
	ExportDir string
	Grid      *codes.Grid // initial grid, default 1x1 code 0
}

func NewModel(opts Options) Model {
	g := codes.New()
	if opts.Grid != nil {
		g = opts.Grid.Clone()
	}
	limits := opts.Limits
	if limits.MaxFragments < 1 {
		limits.MaxFragments = 4
	}
	if limits.MaxLayers < 1 || limits.MaxLayers > codes.MaxLayers {
		limits.MaxLayers = codes.MaxLayers
	}
	rate := max(opts.FrameRate, 1)

	return Model{
		decoder:   opts.Decoder,
		sink:      opts.Sink,
		audio:     opts.Audio,
		limits:    limits,
		frame:     time.Second / time.Duration(rate),
		exportDir: opts.ExportDir,
		grid:      g,
		status:    "decoding…",
	}
}

func (m Model) Init() tea.Cmd {
	m.decoder.Submit(m.grid)
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m = m.frameUpdate()
		return m, m.tick()
	case exportedMsg:
		if msg.err != nil {
			m.warning = fmt.Sprintf("export failed: %v", msg.err)
		} else {
			m.status = "exported " + msg.path
		}
	case deviceMsg:
		if msg.err != nil {
			m.warning = fmt.Sprintf("device switch failed: %v", msg.err)
		} else {
			m.status = "device: " + msg.name
		}
	}
	return m, nil
}

// frameUpdate runs once per frame: adopt the newest decode result, then
// surface asynchronous errors.
func (m Model) frameUpdate() Model {
	if m.fatal == "" {
		res, err := m.decoder.Poll()
		switch {
		case errors.Is(err, worker.ErrWorkerExited):
			m.fatal = "decoder stopped: restart the explorer"
		case err != nil:
			m.fatal = err.Error()
		case res != nil:
			m = m.apply(res)
		}
	}

	for _, ch := range []<-chan string{m.sink.Errors(), m.audio.Errors()} {
		select {
		case msg := <-ch:
			m.warning = msg
		default:
		}
	}
	return m
}

func (m Model) apply(res worker.Result) Model {
	switch r := res.(type) {
	case worker.Samples:
		if r.Unchanged {
			m.applied = r.Seq()
			if r.Seq() == m.submitted {
				m.status = "ready"
			}
			break
		}
		m.sink.UpdateSamples(r.PCM)
		m.applied = r.Seq()
		m.waveform = r.PCM
		m.elapsed = r.Elapsed
		m.cached = r.Cached
		m.warning = ""
		if r.Seq() == m.submitted || m.submitted == 0 {
			m.status = "ready"
		}
	case worker.Failure:
		if r.Seq() < m.applied {
			break
		}
		// Keep looping the last good buffer.
		m.warning = r.Err.Error()
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	changed := false
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "left", "h":
		m.fragment = max(m.fragment-1, 0)
	case "right", "l":
		m.fragment = min(m.fragment+1, m.grid.Fragments()-1)
	case "up", "k":
		m.layer = max(m.layer-1, 0)
	case "down", "j":
		m.layer = min(m.layer+1, m.grid.Layers()-1)

	case "+", "=":
		changed = m.grid.Increment(m.layer, m.fragment, smallStep)
	case "-", "_":
		changed = m.grid.Decrement(m.layer, m.fragment, smallStep)
	case ">", ".":
		changed = m.grid.Increment(m.layer, m.fragment, largeStep)
	case "<", ",":
		changed = m.grid.Decrement(m.layer, m.fragment, largeStep)
	case "0":
		changed = m.grid.At(m.layer, m.fragment) != 0
		_ = m.grid.Set(m.layer, m.fragment, 0)

	case "]":
		changed = m.reshape(m.grid.Layers(), m.grid.Fragments()+1)
	case "[":
		changed = m.reshape(m.grid.Layers(), m.grid.Fragments()-1)
	case "}":
		changed = m.reshape(m.grid.Layers()+1, m.grid.Fragments())
	case "{":
		changed = m.reshape(m.grid.Layers()-1, m.grid.Fragments())

	case "b":
		m.status = m.forceBuffer(max(m.currentBuffer()*2, 1))
	case "B":
		m.status = m.forceBuffer(max(m.currentBuffer()/2, 1))
	case "a":
		m.audio.SetForcedBufferSize(0)
		m.status = "buffer size: automatic"

	case "d":
		return m, m.nextDevice()
	case "w":
		return m, m.export()
	}

	if changed {
		m.submitted = m.decoder.Submit(m.grid)
		m.status = "decoding…"
	}
	return m, nil
}

// reshape applies a new shape within the editing limits and keeps the
// cursor inside the grid.
func (m *Model) reshape(layers, fragments int) bool {
	if layers < 1 || fragments < 1 || layers > m.limits.MaxLayers || fragments > m.limits.MaxFragments {
		return false
	}
	if err := m.grid.Reshape(layers, fragments); err != nil {
		m.warning = err.Error()
		return false
	}
	m.layer = min(m.layer, layers-1)
	m.fragment = min(m.fragment, fragments-1)
	return true
}

func (m Model) currentBuffer() int {
	if n := m.audio.ForcedBufferSize(); n > 0 {
		return n
	}
	if n := m.audio.BufferFrames(); n > 0 {
		return n
	}
	return 512
}

func (m Model) forceBuffer(frames int) string {
	got := m.audio.SetForcedBufferSize(frames)
	return fmt.Sprintf("buffer size: %d frames (applies shortly)", got)
}

func (m Model) nextDevice() tea.Cmd {
	a := m.audio
	return func() tea.Msg {
		name, err := a.NextDevice()
		return deviceMsg{name: name, err: err}
	}
}

func (m Model) export() tea.Cmd {
	pcm, dir, key := m.waveform, m.exportDir, m.grid.Key()
	return func() tea.Msg {
		if len(pcm) == 0 {
			return exportedMsg{err: errors.New("nothing decoded yet")}
		}
		path, err := audio.SaveWAV(dir, "loop", pcm, audio.NativeSampleRate)
		if err == nil {
			path = fmt.Sprintf("%s (%s)", path, key)
		}
		return exportedMsg{path: path, err: err}
	}
}
