// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/haproxyctl"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Send SIGUSR2 to the HAProxy master",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pid, err := cmd.Flags().GetInt("pid")
		if err != nil {
			return err
		}
		pidFile, err := cmd.Flags().GetString("pid-file")
		if err != nil {
			return err
		}

		log := newLogger()
		defer func() { _ = log.Sync() }()

		pid, err = haproxyctl.Reload(pid, pidFile)
		if err != nil {
			return err
		}
		log.Info("haproxy reload requested", zap.Int("pid", pid))
		return nil
	},
}

func init() {
	reloadCmd.Flags().Int("pid", 0, "HAProxy master PID, read from --pid-file when unset")
	rootCmd.AddCommand(reloadCmd)
}
