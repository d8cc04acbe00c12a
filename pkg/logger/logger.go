// Copyright 2023 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// LogContainer hands out the process-wide loggers.
	LogContainer     logContainer
	loggerInit       sync.Once
	simpleLoggerInit sync.Once
)

type logContainer struct {
	logger       *zap.Logger
	simpleLogger *zap.SugaredLogger
}

// GetLogger returns the pointer to the logger and creates one if none exists
func (l *logContainer) GetLogger() *zap.Logger {
	loggerInit.Do(func() {
		l.logger = zap.New(buildCore())
	})
	return l.logger
}

// GetSimpleLogger returns the pointer to the sugared logger and creates one
// if none exists
func (l *logContainer) GetSimpleLogger() *zap.SugaredLogger {
	simpleLoggerInit.Do(func() {
		l.simpleLogger = zap.New(buildCore()).Sugar()
	})
	return l.simpleLogger
}

func consoleCore() zapcore.Core {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc := zapcore.NewConsoleEncoder(cfg)
	// The byte stream being monitored goes to stdout, so logs go to
	// stderr to keep the two separable.
	return zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), zapcore.InfoLevel)
}

func fileCore(path string) (zapcore.Core, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.EpochTimeEncoder
	enc := zapcore.NewJSONEncoder(cfg)
	return zapcore.NewCore(enc, zapcore.AddSync(f), zapcore.DebugLevel), nil
}

// buildCore logs to stderr, and additionally to the file named by
// RAMLINK_LOG when that is set.
func buildCore() zapcore.Core {
	c := consoleCore()
	path := os.Getenv("RAMLINK_LOG")
	if path == "" {
		return c
	}
	fc, err := fileCore(path)
	if err != nil {
		// Console-only beats no logger this early in startup.
		return c
	}
	return zapcore.NewTee(c, fc)
}
