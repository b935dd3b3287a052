// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/haproxyctl"
)

var startOpts haproxyctl.StartOptions

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start HAProxy and print its PID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pidFile, err := cmd.Flags().GetString("pid-file")
		if err != nil {
			return err
		}
		startOpts.PIDFile = pidFile

		log := newLogger()
		defer func() { _ = log.Sync() }()

		pid, err := haproxyctl.Start(cmd.Context(), startOpts, log)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), pid)
		return nil
	},
}

func init() {
	startCmd.Flags().StringVar(&startOpts.Config, "config", "", "HAProxy configuration file")
	startCmd.Flags().StringVar(&startOpts.HAProxy, "haproxy", "haproxy", "HAProxy binary")
	startCmd.Flags().StringVar(&startOpts.LogFile, "log-file", "", "file receiving HAProxy output")
	startCmd.Flags().DurationVar(&startOpts.StartTimeout, "timeout", haproxyctl.DefaultStartTimeout,
		"how long HAProxy must stay up to count as started")
	_ = startCmd.MarkFlagRequired("config")
	rootCmd.AddCommand(startCmd)
}
