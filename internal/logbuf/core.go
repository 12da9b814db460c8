package logbuf

import (
	"go.uber.org/zap/zapcore"
)

// core is a zapcore.Core that mirrors entries into a Buffer. Meant to be
// combined with the real output core via zapcore.NewTee.
type core struct {
	zapcore.LevelEnabler
	buf    *Buffer
	fields []zapcore.Field
}

func NewCore(buf *Buffer, enab zapcore.LevelEnabler) zapcore.Core {
	return &core{LevelEnabler: enab, buf: buf}
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := &core{LevelEnabler: c.LevelEnabler, buf: c.buf}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	var m map[string]any
	if len(enc.Fields) > 0 {
		m = enc.Fields
	}
	c.buf.Append(Entry{
		Time:    ent.Time,
		Level:   ent.Level.String(),
		Message: ent.Message,
		Fields:  m,
	})
	return nil
}

func (c *core) Sync() error { return nil }
