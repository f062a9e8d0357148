package logger

import (
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/fatih/color"
)

// levelTagKey is the structured field carrying the kubeboot level tag.
// The console encoder strips it from the field list and renders it as the
// line prefix so that SUCCESS and FAIL get their own tag instead of zap's
// INFO/FATAL.
const levelTagKey = "kubeboot_level"

var levelColors = map[string]*color.Color{
	"DEBUG":   color.New(color.FgMagenta),
	"INFO":    color.New(color.FgBlue),
	"SUCCESS": color.New(color.FgGreen, color.Bold),
	"WARN":    color.New(color.FgYellow),
	"ERROR":   color.New(color.FgRed),
	"FAIL":    color.New(color.FgRed, color.Bold),
}

var bufPool = buffer.NewPool()

// consoleEncoder wraps zap's console encoder and renders the kubeboot level
// tag as a (optionally colored) line prefix.
type consoleEncoder struct {
	zapcore.Encoder
	colored bool
}

func newConsoleEncoder(cfg zapcore.EncoderConfig, colored bool) zapcore.Encoder {
	return &consoleEncoder{Encoder: zapcore.NewConsoleEncoder(cfg), colored: colored}
}

func (e *consoleEncoder) Clone() zapcore.Encoder {
	return &consoleEncoder{Encoder: e.Encoder.Clone(), colored: e.colored}
}

func (e *consoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	tag := ""
	kept := fields[:0]
	for _, f := range fields {
		if f.Key == levelTagKey {
			tag = f.String
			continue
		}
		kept = append(kept, f)
	}
	if tag == "" {
		tag = defaultTagFor(entry.Level)
	}

	inner, err := e.Encoder.EncodeEntry(entry, kept)
	if err != nil {
		return nil, err
	}
	defer inner.Free()

	out := bufPool.Get()
	out.AppendByte('[')
	if c, ok := levelColors[tag]; ok && e.colored {
		out.AppendString(c.Sprint(tag))
	} else {
		out.AppendString(tag)
	}
	out.AppendByte(']')
	out.AppendByte(' ')
	_, _ = out.Write(inner.Bytes())
	return out, nil
}

func defaultTagFor(lvl zapcore.Level) string {
	switch lvl {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.WarnLevel:
		return "WARN"
	case zapcore.ErrorLevel:
		return "ERROR"
	case zapcore.FatalLevel, zapcore.PanicLevel:
		return "FAIL"
	default:
		return "INFO"
	}
}
