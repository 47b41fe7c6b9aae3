package hook

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/memory-nexus/memory-nexus/internal/config"
	"github.com/memory-nexus/memory-nexus/internal/ports"
)

// NewLogger builds the structured JSON-lines logger shared by the
// hook runner and the sync command: one object per line with
// timestamp, level, message, and caller-supplied fields, rotated by
// file age rather than size.
func NewLogger(cfg config.Config) (*zap.Logger, func() error, error) {
	writer := newRotatingWriteSyncer(cfg.LogPath(), cfg.LogRetentionDays)

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), writer, level)
	logger := zap.New(core)
	return logger, writer.Close, nil
}

// zapLogger adapts *zap.Logger to ports.Logger so the sync
// orchestrator never imports zap directly.
type zapLogger struct{ l *zap.Logger }

func NewPortsLogger(l *zap.Logger) ports.Logger { return &zapLogger{l: l} }

func (z *zapLogger) Debug(msg string, fields ...any) { z.l.Sugar().Debugw(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...any)  { z.l.Sugar().Infow(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...any)  { z.l.Sugar().Warnw(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...any) { z.l.Sugar().Errorw(msg, fields...) }
