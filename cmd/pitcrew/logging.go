package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wesleyxl/pitcrew-ai/pkg/config"
)

// newLogger builds the process logger. Records go to console and, when
// cfg.File is set, to a size-rotated file as well.
func newLogger(cfg config.LogConfig, resolve func(string) string, console io.Writer) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(console)}
	closers := []func() error{}
	if cfg.File != "" {
		path := cfg.File
		if resolve != nil {
			path = resolve(path)
		}
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		sinks = append(sinks, zapcore.AddSync(rotating))
		closers = append(closers, rotating.Close)
	}

	core := zapcore.NewCore(enc, zapcore.NewMultiWriteSyncer(sinks...), level)
	log := zap.New(core, zap.AddCaller())
	cleanup := func() {
		_ = log.Sync()
		for _, c := range closers {
			_ = c()
		}
	}
	return log, cleanup, nil
}
