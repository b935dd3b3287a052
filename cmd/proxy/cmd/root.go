// Copyright (c) 2024 VEXXHOST, Inc.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/agent"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/config"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/version"
)

var binName = filepath.Base(os.Args[0])

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   binName,
	Short: "run the magnum cluster api proxy",
	Long: "Proxies workload cluster API servers without floating IPs through HAProxy " +
		"and publishes this host as an endpoint of each cluster service.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		log := logger.NewLogger(cfg.Logger)
		ctrl.SetLogger(logr.New(logger.NewLogSink(log, cfg.KLOGLevel)))
		log.Info("starting", zap.String("version", version.String()))
		cfg.PrintPrettyConfig(log)

		defer func() {
			if e := recover(); nil != e {
				log.Sugar().Errorf("panic: %v", e)
				os.Exit(1)
			}
		}()

		err = run(ctx, cfg, log)
		if err != nil {
			log.Error("proxy exited", zap.Error(err))
			os.Exit(1)
		}
	},
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	svc, err := agent.New(cfg, log)
	if err != nil {
		return err
	}
	return svc.Start(ctx)
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
