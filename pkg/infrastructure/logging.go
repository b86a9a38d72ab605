// Package infrastructure routes fx's own events through zap.
package infrastructure

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// FxLogger implements fxevent.Logger and fx.Printer on a zap.Logger with
// structured fields. Routine wiring events go to debug; failures to error.
type FxLogger struct {
	logger *zap.Logger
}

// NewFxLoggerAdapter is suitable for fx.WithLogger.
func NewFxLoggerAdapter(logger *zap.Logger) fxevent.Logger {
	return &FxLogger{logger: logger.Named("fx")}
}

// NewFxPrinter returns an fx.Printer writing at info level.
func NewFxPrinter(logger *zap.Logger) fx.Printer {
	return &FxLogger{logger: logger.Named("fx")}
}

func (l *FxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("OnStart hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStartExecuted:
		l.hookDone("OnStart", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.OnStopExecuting:
		l.logger.Debug("OnStop hook executing", zap.String("callee", e.FunctionName), zap.String("caller", e.CallerName))
	case *fxevent.OnStopExecuted:
		l.hookDone("OnStop", e.FunctionName, e.CallerName, e.Runtime.String(), e.Err)
	case *fxevent.Supplied:
		l.result("Supplied", e.Err, zap.String("type", e.TypeName), zap.String("module", e.ModuleName))
	case *fxevent.Provided:
		l.result("Provided", e.Err,
			zap.String("constructor", e.ConstructorName),
			zap.Strings("types", e.OutputTypeNames),
			zap.String("module", e.ModuleName))
	case *fxevent.Decorated:
		l.result("Decorated", e.Err, zap.String("decorator", e.DecoratorName), zap.Strings("types", e.OutputTypeNames))
	case *fxevent.Invoking:
		l.logger.Debug("Invoking", zap.String("function", e.FunctionName), zap.String("module", e.ModuleName))
	case *fxevent.Invoked:
		l.result("Invoked", e.Err, zap.String("function", e.FunctionName), zap.String("module", e.ModuleName))
	case *fxevent.Stopping:
		l.logger.Info("Received signal", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		l.result("Stopped", e.Err)
	case *fxevent.RollingBack:
		l.logger.Error("Start failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		l.result("Rolled back", e.Err)
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error("Start failed", zap.Error(e.Err))
		} else {
			l.logger.Info("Started")
		}
	case *fxevent.LoggerInitialized:
		l.result("Logger initialized", e.Err, zap.String("constructor", e.ConstructorName))
	default:
		l.logger.Debug("Unhandled fx event", zap.String("type", fmt.Sprintf("%T", event)))
	}
}

func (l *FxLogger) Printf(format string, args ...any) {
	l.logger.Sugar().Infof(format, args...)
}

func (l *FxLogger) hookDone(hook, callee, caller, runtime string, err error) {
	fields := []zap.Field{zap.String("callee", callee), zap.String("caller", caller)}
	if err != nil {
		l.logger.Error(hook+" hook failed", append(fields, zap.Error(err))...)
		return
	}
	l.logger.Debug(hook+" hook executed", append(fields, zap.String("runtime", runtime))...)
}

func (l *FxLogger) result(msg string, err error, fields ...zap.Field) {
	if err != nil {
		l.logger.Error(msg+" with error", append(fields, zap.Error(err))...)
		return
	}
	l.logger.Debug(msg, fields...)
}
