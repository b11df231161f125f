// Package log builds the zap loggers used across the recorder.
package log

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

var Emoji = "\U0001F3AD" + " pwrecorder:"

// LogFile receives a copy of everything written to stdout.
var LogFile = "./pwrecorder-logs.txt"

var (
	cfgMu  sync.Mutex
	logCfg zap.Config
	ring   = NewRing(DefaultRingSize)
)

// New returns the base logger together with the in-memory ring that mirrors its entries.
func New() (*zap.Logger, *Ring, error) {
	_ = zap.RegisterEncoder("colorConsole", func(config zapcore.EncoderConfig) (zapcore.Encoder, error) {
		return NewColor(config), nil
	})

	cfgMu.Lock()
	defer cfgMu.Unlock()

	logCfg = zap.NewDevelopmentConfig()
	logCfg.Encoding = "colorConsole"
	logCfg.EncoderConfig.EncodeTime = customTimeEncoder
	logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logCfg.OutputPaths = []string{
		"stdout",
		LogFile,
	}
	logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logCfg.DisableStacktrace = true
	logCfg.EncoderConfig.EncodeCaller = nil
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, err := build()
	if err != nil {
		return nil, nil, err
	}
	return logger, ring, nil
}

// DisableANSI switches the level encoder to plain capitals, for pipes and CI logs.
func DisableANSI() (*zap.Logger, error) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	logCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return build()
}

func ChangeLogLevel(level zapcore.Level) (*zap.Logger, error) {
	cfgMu.Lock()
	defer cfgMu.Unlock()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	if level == zap.DebugLevel {
		logCfg.DisableStacktrace = false
		logCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	}
	return build()
}

func build() (*zap.Logger, error) {
	logger, err := logCfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, NewRingCore(ring, zapcore.InfoLevel))
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to build config for logger: %v", err)
	}
	return logger, nil
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(Emoji + " " + t.Format(time.RFC3339) + " ")
}

// Recent returns what the ring behind every logger built here currently holds.
func Recent() []string {
	return ring.Entries()
}
