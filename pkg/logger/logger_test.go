// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

package logger_test

import (
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
)

func TestNewLogger(t *testing.T) {
	cases := map[string]struct {
		cfg     logger.Config
		debugOn bool
	}{
		"json default": {
			cfg: logger.Config{},
		},
		"console": {
			cfg: logger.Config{Encoder: "console"},
		},
		"dev mode debug": {
			cfg:     logger.Config{Encoder: "console", Level: "debug", UseDevMode: true},
			debugOn: true,
		},
		"invalid level falls back to info": {
			cfg: logger.Config{Level: "chatty"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			log := logger.NewLogger(tc.cfg)
			assert.NotNil(t, log)
			assert.Equal(t, tc.debugOn, log.Core().Enabled(zapcore.DebugLevel))
			assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logr.New(logger.NewLogSink(zap.New(core), 2))

	log.Info("visible", "cluster", "c1")
	log.V(2).Info("verbose")
	log.V(3).Info("dropped")
	log.WithName("mgr").WithValues("node", "h1").Error(errors.New("boom"), "failed")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "visible", entries[0].Message)
		assert.Equal(t, "c1", entries[0].ContextMap()["cluster"])
		assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
		assert.Equal(t, "mgr", entries[2].LoggerName)
		assert.Equal(t, "h1", entries[2].ContextMap()["node"])
	}
}
