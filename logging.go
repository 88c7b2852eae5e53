/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger builds the process-wide logger: console to stderr, or a rolling
// file when --log-file is set. --verbose lowers the level to debug.
func newLogger(cfg *Config) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	if cfg.verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:       "ts",
		LevelKey:      "level",
		NameKey:       "logger",
		CallerKey:     "caller",
		MessageKey:    "msg",
		StacktraceKey: "stack",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	var ws zapcore.WriteSyncer
	if cfg.logFile != "" {
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     7,
		})
	} else {
		ws = zapcore.AddSync(os.Stderr)
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, level)

	return zap.New(core, zap.AddCaller()).Sugar()
}
