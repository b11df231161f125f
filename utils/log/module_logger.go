package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ModuleCodegen = "codegen"
	ModuleBridge  = "bridge"
	ModuleTools   = "tools"
	ModuleDetect  = "detect"
	ModuleCLI     = "cli"
)

// ModuleLoggerFactory hands out named loggers whose debug output can be switched per module.
type ModuleLoggerFactory struct {
	baseLogger  *zap.Logger
	globalDebug bool
	moduleDebug map[string]bool
}

var GlobalLoggerFactory *ModuleLoggerFactory

func NewModuleLoggerFactory(baseLogger *zap.Logger, globalDebug bool, moduleDebug map[string]bool) *ModuleLoggerFactory {
	if moduleDebug == nil {
		moduleDebug = make(map[string]bool)
	}
	return &ModuleLoggerFactory{
		baseLogger:  baseLogger,
		globalDebug: globalDebug,
		moduleDebug: moduleDebug,
	}
}

func InitGlobalFactory(baseLogger *zap.Logger, globalDebug bool, moduleDebug map[string]bool) {
	GlobalLoggerFactory = NewModuleLoggerFactory(baseLogger, globalDebug, moduleDebug)
}

func (f *ModuleLoggerFactory) GetLogger(moduleName string) *zap.Logger {
	namedLogger := f.baseLogger.Named(moduleName)
	if f.IsDebugEnabled(moduleName) {
		return namedLogger
	}
	return namedLogger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelFilterCore{Core: core, minLevel: zapcore.InfoLevel}
	}))
}

func (f *ModuleLoggerFactory) IsDebugEnabled(moduleName string) bool {
	if f.globalDebug {
		return true
	}
	return f.moduleDebug[moduleName]
}

// GetModuleLogger uses the global factory, or a no-op logger before the factory is initialised.
func GetModuleLogger(moduleName string) *zap.Logger {
	if GlobalLoggerFactory == nil {
		return zap.NewNop().Named(moduleName)
	}
	return GlobalLoggerFactory.GetLogger(moduleName)
}

type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(level zapcore.Level) bool {
	return level >= c.minLevel && c.Core.Enabled(level)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return c.Core.Check(entry, ce)
	}
	return ce
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{
		Core:     c.Core.With(fields),
		minLevel: c.minLevel,
	}
}
