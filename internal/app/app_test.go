package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/app"
	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/internal/config"
	"github.com/Raikerian/encodec-explorer/internal/decode"
	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/internal/synth"
	"github.com/Raikerian/encodec-explorer/internal/worker"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

// TestPipelineHeadless wires the real modules minus the terminal UI and
// drives the frame loop by hand.
func TestPipelineHeadless(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.Backend = output.HeadlessName
	cfg.Audio.SampleRate = 48000
	cfg.Audio.BufferFrames = 256

	var (
		w *worker.Worker
		p *synth.Player
		m *output.Manager
	)
	app := fxtest.New(t,
		fx.Supply(cfg),
		fx.Provide(func() *zap.Logger { return zap.NewNop() }),
		decode.Module,
		worker.Module,
		synth.Module,
		output.Module,
		fx.Populate(&w, &p, &m),
	)
	app.RequireStart()
	defer app.RequireStop()

	g := codes.New()
	require.NoError(t, g.Set(0, 0, 5))
	w.Submit(g)

	deadline := time.Now().Add(2 * time.Second)
	var got worker.Samples
	for time.Now().Before(deadline) {
		res, err := w.Poll()
		require.NoError(t, err)
		if s, ok := res.(worker.Samples); ok {
			got = s
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, got.PCM, audio.FragmentSize)
	p.UpdateSamples(got.PCM)

	assert.Eventually(t, func() bool { return p.BufferFrames() == 256 }, time.Second, 5*time.Millisecond)
	negotiated, ok := m.Config()
	require.True(t, ok)
	assert.Equal(t, uint32(48000), negotiated.SampleRate)
	assert.Equal(t, uint32(48000), p.DeviceRate())
}

func TestApplicationLifecycle(t *testing.T) {
	application := app.New(
		fx.Supply(config.Default()),
		fx.Supply(zap.NewNop()),
		fx.NopLogger,
	)
	require.NoError(t, application.Err())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, application.Start(ctx))
	assert.NoError(t, application.Stop(ctx))
}
