// Copyright 2022 Authors of spidernet-io
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"k8s.io/client-go/rest"
	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/vexxhost/magnum-cluster-api-sub000/pkg/logger"
)

const (
	DefaultManagementNamespace = "magnum-system"
	DefaultConfigDirName       = ".magnum-cluster-api-proxy"
)

type Config struct {
	// From environment
	EnvConfig

	// FileConfig from configmap
	FileConfig FileConfig

	KubeConfig *rest.Config
}

func (cfg *Config) PrintPrettyConfig(log *zap.Logger) {
	log.Sugar().Info("env config list:")
	envKeysMap := &map[string]interface{}{}
	if err := mapstructure.Decode(cfg.EnvConfig, &envKeysMap); err != nil {
		log.Sugar().Warnf("failed to decode env config: %v", err)
		return
	}
	for k, v := range *envKeysMap {
		log.Sugar().Infof("%s=%v", k, v)
	}
}

type EnvConfig struct {
	NodeName            string `mapstructure:"NODE_NAME"`
	ManagementNamespace string `mapstructure:"MANAGEMENT_NAMESPACE"`

	// ProxyPort is only a hint, a free port is picked when it is taken.
	ProxyPort   int    `mapstructure:"PROXY_PORT"`
	ProxyBind   string `mapstructure:"PROXY_BIND"`
	ProxyAlways bool   `mapstructure:"PROXY_ALWAYS"`
	PodIP       string `mapstructure:"POD_IP"`

	SyncInterval   time.Duration `mapstructure:"SYNC_INTERVAL"`
	LivenessWindow time.Duration `mapstructure:"LIVENESS_WINDOW"`

	ConfigDir          string `mapstructure:"PROXY_CONFIG_DIR"`
	HAProxyBinary      string `mapstructure:"HAPROXY_BINARY"`
	HAProxyHelper      string `mapstructure:"HAPROXY_HELPER"`
	HAProxyPIDPath     string `mapstructure:"HAPROXY_PID_PATH"`
	HAProxyAdminSocket string `mapstructure:"HAPROXY_ADMIN_SOCKET"`
	NetNSRunDir        string `mapstructure:"NETNS_RUN_DIR"`

	Logger    logger.Config `mapstructure:",squash"`
	KLOGLevel int           `mapstructure:"KLOG_LEVEL"`

	MetricsBindAddress     string `mapstructure:"METRICS_BIND_ADDRESS"`
	HealthProbeBindAddress string `mapstructure:"HEALTH_PROBE_BIND_ADDRESS"`
	GopsPort               int    `mapstructure:"GOPS_PORT"`
	PyroscopeServerAddr    string `mapstructure:"PYROSCOPE_SERVER_ADDR"`
	ConfigMapPath          string `mapstructure:"CONFIGMAP_PATH"`
}

type FileConfig struct {
	HAProxy HAProxy `yaml:"haproxy"`
}

type HAProxy struct {
	MaxConn        int           `yaml:"maxConn"`
	TimeoutConnect time.Duration `yaml:"timeoutConnect"`
	TimeoutClient  time.Duration `yaml:"timeoutClient"`
	TimeoutServer  time.Duration `yaml:"timeoutServer"`
}

// ConfigFile is where the rendered HAProxy configuration lives.
func (cfg *Config) ConfigFile() string {
	return filepath.Join(cfg.ConfigDir, "haproxy.cfg")
}

// LoadConfig loads the configuration
func LoadConfig() (*Config, error) {
	config := &Config{
		EnvConfig: EnvConfig{
			ManagementNamespace:    DefaultManagementNamespace,
			ProxyBind:              "*",
			SyncInterval:           10 * time.Second,
			LivenessWindow:         30 * time.Second,
			HAProxyBinary:          "haproxy",
			HAProxyHelper:          "magnum-cluster-api-proxy-haproxy",
			HAProxyPIDPath:         "/var/run/haproxy.pid",
			HAProxyAdminSocket:     "/var/run/magnum-cluster-api-proxy.sock",
			NetNSRunDir:            "/var/run/netns",
			Logger:                 logger.Config{Level: "info", Encoder: "json"},
			KLOGLevel:              2,
			MetricsBindAddress:     ":9090",
			HealthProbeBindAddress: ":8788",
		},
		FileConfig: FileConfig{
			HAProxy: HAProxy{
				MaxConn:        4096,
				TimeoutConnect: 5 * time.Second,
				TimeoutClient:  10 * time.Minute,
				TimeoutServer:  10 * time.Minute,
			},
		},
	}

	// map environment variables to struct objects
	envKeysMap := &map[string]interface{}{}
	if err := mapstructure.Decode(config.EnvConfig, &envKeysMap); err != nil {
		return nil, err
	}
	for k := range *envKeysMap {
		if err := viper.BindEnv(k); err != nil {
			return nil, err
		}
	}

	err := viper.Unmarshal(&config.EnvConfig, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, err
	}

	if config.NodeName == "" {
		config.NodeName, err = os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get hostname: %w", err)
		}
	}

	if config.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		config.ConfigDir = filepath.Join(home, DefaultConfigDirName)
	}

	if config.SyncInterval <= 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must be positive, got %v", config.SyncInterval)
	}
	if config.LivenessWindow <= config.SyncInterval {
		return nil, fmt.Errorf("LIVENESS_WINDOW %v must be longer than SYNC_INTERVAL %v",
			config.LivenessWindow, config.SyncInterval)
	}

	// load file config from configMap
	if len(config.ConfigMapPath) > 0 {
		configmapBytes, err := os.ReadFile(config.ConfigMapPath)
		if nil != err {
			return nil, fmt.Errorf("failed to read ConfigMap file %v, error: %v", config.ConfigMapPath, err)
		}
		if err := yaml.Unmarshal(configmapBytes, &config.FileConfig); nil != err {
			return nil, fmt.Errorf("failed to parse ConfigMap data, error: %v", err)
		}
	}

	// load kube config
	config.KubeConfig, err = ctrl.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig, error: %v", err)
	}

	return config, nil
}
