package infrastructure_test

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Raikerian/encodec-explorer/pkg/infrastructure"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestLogEventLevels(t *testing.T) {
	tests := map[string]struct {
		event     fxevent.Event
		wantLevel zapcore.Level
		wantMsg   string
	}{
		"hook_ok": {
			event:     &fxevent.OnStartExecuted{FunctionName: "start", CallerName: "worker", Runtime: time.Millisecond},
			wantLevel: zapcore.DebugLevel,
			wantMsg:   "OnStart hook executed",
		},
		"hook_failed": {
			event:     &fxevent.OnStopExecuted{FunctionName: "stop", CallerName: "output", Err: errors.New("busy")},
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "OnStop hook failed",
		},
		"provided": {
			event:     &fxevent.Provided{ConstructorName: "NewPlayer", OutputTypeNames: []string{"*synth.Player"}},
			wantLevel: zapcore.DebugLevel,
			wantMsg:   "Provided",
		},
		"invoke_failed": {
			event:     &fxevent.Invoked{FunctionName: "run", Err: errors.New("missing type")},
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "Invoked with error",
		},
		"stopping": {
			event:     &fxevent.Stopping{Signal: syscall.SIGTERM},
			wantLevel: zapcore.InfoLevel,
			wantMsg:   "Received signal",
		},
		"started": {
			event:     &fxevent.Started{},
			wantLevel: zapcore.InfoLevel,
			wantMsg:   "Started",
		},
		"rolling_back": {
			event:     &fxevent.RollingBack{StartErr: errors.New("no device")},
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "Start failed, rolling back",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logger, logs := observed()
			infrastructure.NewFxLoggerAdapter(logger).LogEvent(tt.event)

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, "fx", entries[0].LoggerName)
		})
	}
}

func TestLogEventFields(t *testing.T) {
	logger, logs := observed()
	infrastructure.NewFxLoggerAdapter(logger).LogEvent(&fxevent.Provided{
		ConstructorName: "NewManager",
		OutputTypeNames: []string{"*output.Manager"},
		ModuleName:      "output",
	})

	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "NewManager", ctx["constructor"])
	assert.Equal(t, "output", ctx["module"])
}

func TestPrintf(t *testing.T) {
	logger, logs := observed()
	infrastructure.NewFxPrinter(logger).Printf("loaded %d modules", 9)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "loaded 9 modules", logs.All()[0].Message)
}
