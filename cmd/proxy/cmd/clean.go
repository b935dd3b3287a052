// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/config"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/schema"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Withdraw this host's endpoint slices",
	Long:  "Delete every endpoint slice published by this host, used when draining it.",
	Run: func(cmd *cobra.Command, args []string) {
		node, err := cmd.Flags().GetString("node")
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if node == "" {
			node = cfg.NodeName
		}

		cli, err := client.New(cfg.KubeConfig, client.Options{Scheme: schema.GetScheme()})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		deleted, err := agent.Clean(context.Background(), cli, cfg.ManagementNamespace, node)
		for _, name := range deleted {
			fmt.Fprintf(cmd.OutOrStdout(), "deleted endpointslice %s/%s\n", cfg.ManagementNamespace, name)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	cleanCmd.Flags().String("node", "", "host whose endpoint slices are removed, defaults to NODE_NAME")
	rootCmd.AddCommand(cleanCmd)
}
