package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Raikerian/encodec-explorer/internal/version"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

const waveformWidth = 64

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	cursorStyle  = lipgloss.NewStyle().Bold(true).Reverse(true)
	waveStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	fatalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

var sparks = []rune("▁▂▃▄▅▆▇█")

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(version.String()))
	b.WriteString("\n\n")

	b.WriteString(m.renderGrid())
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Loop:   "))
	b.WriteString(waveStyle.Render(Sparkline(m.waveform, waveformWidth)))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("        "))
	b.WriteString(valueStyle.Render(m.loopInfo()))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Device: "))
	b.WriteString(valueStyle.Render(m.deviceInfo()))
	b.WriteString("\n\n")

	switch {
	case m.fatal != "":
		b.WriteString(fatalStyle.Render("✗ " + m.fatal))
	case m.warning != "":
		b.WriteString(warningStyle.Render("⚠ " + m.warning))
	default:
		b.WriteString(valueStyle.Render(m.status))
	}
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render(helpText))
	return b.String()
}

const helpText = `←↓↑→/hjkl move  +/- code ±1  >/< ±16  0 zero
]/[ fragments  }/{ layers  b/B buffer ×2/÷2  a auto buffer
d next device  w export wav  q quit`

func (m Model) renderGrid() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("layer"))
	for f := 0; f < m.grid.Fragments(); f++ {
		b.WriteString(headerStyle.Render(fmt.Sprintf(" %5d", f)))
	}
	b.WriteString("\n")

	for l := 0; l < m.grid.Layers(); l++ {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%5d", l)))
		for f := 0; f < m.grid.Fragments(); f++ {
			b.WriteString(" ")
			cell := fmt.Sprintf("%5d", m.grid.At(l, f))
			if l == m.layer && f == m.fragment {
				b.WriteString(cursorStyle.Render(cell))
			} else {
				b.WriteString(valueStyle.Render(cell))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) loopInfo() string {
	if len(m.waveform) == 0 {
		return "no audio yet"
	}
	src := "decoded in " + m.elapsed.Round(100 * time.Microsecond).String()
	if m.cached {
		src = "cached"
	}
	return fmt.Sprintf("%d samples, %.0f ms, peak %.2f, %s",
		len(m.waveform), 1000*audio.FragmentDuration(m.grid.Fragments()), audio.Peak(m.waveform), src)
}

func (m Model) deviceInfo() string {
	cfg, ok := m.audio.Config()
	if !ok {
		return m.audio.DeviceName() + " (not running)"
	}
	buffer := "auto"
	if n := m.audio.ForcedBufferSize(); n > 0 {
		buffer = fmt.Sprintf("forced %d", n)
	}
	return fmt.Sprintf("%s  %d Hz  %d ch  %d frames/callback (%s)",
		m.audio.DeviceName(), cfg.SampleRate, cfg.Channels, m.audio.BufferFrames(), buffer)
}

// Sparkline renders the peak of each of width buckets of samples as block
// characters, scaled to the buffer's overall peak.
func Sparkline(samples []float32, width int) string {
	if len(samples) == 0 || width <= 0 {
		return strings.Repeat(" ", max(width, 0))
	}
	width = min(width, len(samples))
	peak := audio.Peak(samples)

	out := make([]rune, width)
	for i := range out {
		lo := i * len(samples) / width
		hi := (i + 1) * len(samples) / width
		level := 0
		if peak > 0 {
			v := audio.Peak(samples[lo:hi]) / peak
			level = min(int(v*float32(len(sparks)-1)+0.5), len(sparks)-1)
		}
		out[i] = sparks[level]
	}
	return string(out)
}
