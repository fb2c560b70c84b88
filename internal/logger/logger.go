package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSize    = 50 // megabytes per log file before rotation
	maxBackups = 30
	maxAge     = 28 // days
)

// New builds the process logger. Both modes tee the console output into a
// rotated JSON file when logFile is set.
func New(logFile, mode string) (*zap.Logger, error) {
	if mode == "release" {
		return newProductionLogger(logFile)
	}
	return newDevelopmentLogger(logFile)
}

func rotateWriteSyncer(logFile string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
	})
}

func newProductionLogger(logFile string) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.DisableCaller = true
	c.DisableStacktrace = true

	return c.Build(withFile(logFile, zap.NewProductionEncoderConfig(), zap.InfoLevel))
}

func newDevelopmentLogger(logFile string) (*zap.Logger, error) {
	c := zap.NewDevelopmentConfig()

	return c.Build(withFile(logFile, zap.NewDevelopmentEncoderConfig(), zap.DebugLevel))
}

func withFile(logFile string, enc zapcore.EncoderConfig, level zapcore.Level) zap.Option {
	return zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		if logFile == "" {
			return c
		}
		core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), rotateWriteSyncer(logFile), level)
		return zapcore.NewTee(c, core)
	})
}
