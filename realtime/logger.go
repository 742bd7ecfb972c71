package realtime

import "go.uber.org/zap"

// Logger is a minimal logging interface accepted by the SDK.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// NopLogger returns a logger that discards everything.
func NopLogger() Logger { return noopLogger{} }

// noopLogger discards all logs.
type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any) {}
func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}

// zapLogger adapts a zap.Logger to the SDK Logger interface.
type zapLogger struct {
	l *zap.SugaredLogger
}

// NewZapLogger wraps a zap.Logger for use with SetLogger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l.Sugar()}
}

func (z *zapLogger) Debug(msg string, fields map[string]any) { z.l.Debugw(msg, flatten(fields)...) }
func (z *zapLogger) Info(msg string, fields map[string]any)  { z.l.Infow(msg, flatten(fields)...) }
func (z *zapLogger) Warn(msg string, fields map[string]any)  { z.l.Warnw(msg, flatten(fields)...) }
func (z *zapLogger) Error(msg string, fields map[string]any) { z.l.Errorw(msg, flatten(fields)...) }

func flatten(fields map[string]any) []any {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return kv
}
