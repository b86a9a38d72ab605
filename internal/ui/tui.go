package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Raikerian/encodec-explorer/internal/config"
	"github.com/Raikerian/encodec-explorer/internal/output"
	"github.com/Raikerian/encodec-explorer/internal/synth"
	"github.com/Raikerian/encodec-explorer/internal/worker"
)

// Module runs the terminal UI for the life of the application. Quitting the
// UI shuts the application down.
var Module = fx.Module("ui",
	fx.Provide(NewProgram),
	fx.Invoke(func(*Program) {}),
)

// Program wraps the bubbletea program.
type Program struct {
	logger *zap.Logger
	tea    *tea.Program
	done   chan struct{}
}

// ProgramParams holds dependencies for NewProgram.
type ProgramParams struct {
	fx.In
	Cfg        *config.Config
	Logger     *zap.Logger
	Worker     *worker.Worker
	Player     *synth.Player
	Audio      *output.Manager
	LC         fx.Lifecycle
	Shutdowner fx.Shutdowner
}

func NewProgram(p ProgramParams) *Program {
	model := NewModel(Options{
		Decoder: p.Worker,
		Sink:    p.Player,
		Audio:   p.Audio,
		Limits: Limits{
			MaxFragments: p.Cfg.UI.MaxFragments,
			MaxLayers:    p.Cfg.UI.MaxLayers,
		},
		FrameRate: p.Cfg.UI.FrameRate,
		ExportDir: p.Cfg.UI.ExportDir,
	})

	prog := &Program{
		logger: p.Logger.Named("ui"),
		tea:    tea.NewProgram(model, tea.WithAltScreen()),
		done:   make(chan struct{}),
	}

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go prog.run(p.Shutdowner)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			prog.tea.Quit()
			select {
			case <-prog.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
	return prog
}

func (p *Program) run(s fx.Shutdowner) {
	defer close(p.done)

	_, err := p.tea.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		p.logger.Error("Terminal UI failed", zap.Error(err))
		_ = s.Shutdown(fx.ExitCode(1))
		return
	}
	p.logger.Info("Terminal UI exited")
	_ = s.Shutdown()
}

