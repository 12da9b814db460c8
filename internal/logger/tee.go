package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"swarm/internal/logbuf"
)

// WithBuffer returns a logger that additionally mirrors every entry into buf,
// which backs GET /api/logs and the websocket log feed.
func WithBuffer(log *zap.Logger, buf *logbuf.Buffer) *zap.Logger {
	if log == nil || buf == nil {
		return log
	}
	return log.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, logbuf.NewCore(buf, c))
	}))
}
