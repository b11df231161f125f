package log

import (
	"bytes"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// colorEncoder is a console encoder that keeps ANSI escapes embedded in messages,
// e.g. highlighted locators, instead of printing them as \u001b.
type colorEncoder struct {
	*zapcore.EncoderConfig
	zapcore.Encoder
}

func NewColor(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return colorEncoder{
		EncoderConfig: &cfg,
		Encoder:       zapcore.NewConsoleEncoder(cfg),
	}
}

func (c colorEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := c.Encoder.EncodeEntry(ent, fields)
	if err != nil {
		return nil, err
	}
	raw := bytes.ReplaceAll(buf.Bytes(), []byte("\\u001b"), []byte("\u001b"))
	buf.Reset()
	_, _ = buf.Write(raw)
	return buf, nil
}

func (c colorEncoder) Clone() zapcore.Encoder {
	return colorEncoder{
		EncoderConfig: c.EncoderConfig,
		Encoder:       c.Encoder.Clone(),
	}
}
