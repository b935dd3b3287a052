// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/zap"
)

// WrapperLogSink adapts a zap logger to logr so that controller-runtime and
// klog share the process logger. Verbosity above level is dropped.
type WrapperLogSink struct {
	level int
	log   *zap.Logger
}

func (w *WrapperLogSink) Init(info logr.RuntimeInfo) {
	w.log = w.log.WithOptions(zap.AddCallerSkip(info.CallDepth + 1))
}

func (w *WrapperLogSink) Enabled(level int) bool {
	return level <= w.level
}

func (w *WrapperLogSink) Info(level int, msg string, keysAndValues ...interface{}) {
	if level > w.level {
		return
	}
	log := w.withValues(keysAndValues...)
	if level > 0 {
		log.With(zap.Int("v", level)).Debug(msg)
		return
	}
	log.Info(msg)
}

func (w *WrapperLogSink) Error(err error, msg string, keysAndValues ...interface{}) {
	w.withValues(keysAndValues...).Error(msg, zap.Error(err))
}

func (w *WrapperLogSink) withValues(keysAndValues ...interface{}) *zap.Logger {
	log := w.log
	if len(keysAndValues)%2 != 0 {
		return log.With(zap.Any("keysAndValues", keysAndValues))
	}
	for i := 0; i < len(keysAndValues); i += 2 {
		key := fmt.Sprintf("%v", keysAndValues[i])
		log = log.With(zap.Any(key, keysAndValues[i+1]))
	}
	return log
}

func (w *WrapperLogSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	return &WrapperLogSink{w.level, w.withValues(keysAndValues...)}
}

func (w *WrapperLogSink) WithName(name string) logr.LogSink {
	return &WrapperLogSink{w.level, w.log.Named(name)}
}

func NewLogSink(log *zap.Logger, level int) logr.LogSink {
	return &WrapperLogSink{log: log, level: level}
}
