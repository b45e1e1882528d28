// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xlog is the process-wide logging shell. It mirrors the shape of
// a plain Logf/Vlogf helper but is backed by a structured zap logger so
// that verbosity, quiet mode, and field-based context all compose instead
// of being bolted on as string prefixes.
package xlog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbose gates Vlogf output, set from the -v/--verbose repeat count.
var Verbose bool

// Quiet suppresses Warn output, set from -q/--quiet.
var Quiet bool

// base is reconfigured by SetLevel to gate Vlogf/Warn on verbosity; always
// is a separate logger fixed at InfoLevel so Logf's output never depends
// on the verbosity count, matching its "always prints" contract.
var base *zap.SugaredLogger
var always *zap.SugaredLogger

func init() {
	base = newLogger(zapcore.WarnLevel).Sugar()
	always = newLogger(zapcore.InfoLevel).Sugar()
}

// SetLevel reconfigures the base logger for the given verbosity count,
// matching the teacher's Verbosity::Quiet/Normal/Verbose tri-state.
func SetLevel(verboseCount int) {
	lvl := zapcore.WarnLevel
	if verboseCount > 0 {
		lvl = zapcore.DebugLevel
	}
	base = newLogger(lvl).Sugar()
}

func newLogger(lvl zapcore.Level) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.TimeKey = ""
	enc := zapcore.NewConsoleEncoder(cfg)
	core := zapcore.NewCore(enc, zapcore.AddSync(os.Stderr), lvl)
	return zap.New(core)
}

// Logf always prints at info level. Unlike the teacher's Logf it adds no
// "dep: "-style prefix; the console encoder prints only the level and the
// message.
func Logf(format string, args ...interface{}) {
	always.Infof(format, args...)
}

// Vlogf prints only when Verbose is set.
func Vlogf(format string, args ...interface{}) {
	if !Verbose {
		return
	}
	base.Debugf(format, args...)
}

// Warn prints a warning line unless Quiet is set, the degrade-and-continue
// path for registry failures (see internal/xerrors.RegistryError).
func Warn(format string, args ...interface{}) {
	if Quiet {
		return
	}
	base.Warnf(format, args...)
}

// Sync flushes the underlying loggers; call before process exit.
func Sync() {
	_ = base.Sync()
	_ = always.Sync()
}
