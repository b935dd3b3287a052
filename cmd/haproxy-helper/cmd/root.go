// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
)

var binName = filepath.Base(os.Args[0])

var logLevel string

// rootCmd only groups the privileged subcommands, it does nothing itself.
var rootCmd = &cobra.Command{
	Use:          binName,
	Short:        "privileged HAProxy start and reload for the magnum cluster api proxy",
	SilenceUsage: true,
}

// newLogger logs to stderr, stdout is reserved for the PID.
func newLogger() *zap.Logger {
	return logger.NewLogger(logger.Config{Level: logLevel, Encoder: "console"})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")
	rootCmd.PersistentFlags().String("pid-file", "/var/run/haproxy.pid", "HAProxy PID file")
}
