package main

import (
	"context"
	"io"
	"strings"

	"contract-agent/internal/config"
	"contract-agent/internal/dependency"
	"contract-agent/internal/logger"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

type rootArgs struct {
	cfgPath   string
	overrides []string
	logLevel  string
	logFile   string
	logCloser io.Closer
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &rootArgs{}
	cmd := &cobra.Command{
		Use:           "contract-agent",
		Short:         "Chat assistant that calls smart-contract tools from a remote catalog",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return root.setupLogging()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if root.logCloser != nil {
				root.logCloser.Close()
			}
		},
	}
	cmd.SetOut(out)

	flags := cmd.PersistentFlags()
	flags.StringVar(&root.cfgPath, "config", "", "Path to config file (default ~/.contract-agent/config.toml)")
	flags.StringArrayVarP(&root.overrides, "config-override", "c", nil, "Override config value key=value (repeatable)")
	flags.StringVar(&root.logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	flags.StringVar(&root.logFile, "log-file", "", "Also write logs to this file")

	cmd.AddCommand(
		newServeCmd(root),
		newAskCmd(root),
		newCatalogCmd(root),
		newTokenCmd(root),
		newPingCmd(root),
		newInitCmd(root),
	)
	return cmd
}

func (r *rootArgs) setupLogging() error {
	if strings.TrimSpace(r.logLevel) != "" {
		logger.SetLevel(r.logLevel)
	}
	if strings.TrimSpace(r.logFile) == "" {
		return nil
	}
	closer, _, err := logger.SetupFile(r.logFile)
	if err != nil {
		log.Warnf("failed to initialize log file (%s): %v", r.logFile, err)
		return nil
	}
	r.logCloser = closer
	return nil
}

// loadConfig 读取配置文件并依次应用 -c 覆盖与 --log-level。
func (r *rootArgs) loadConfig() (config.Config, error) {
	cfg, err := config.Load(r.cfgPath)
	if err != nil {
		return cfg, err
	}
	cfg = config.ApplyKVOverrides(cfg, r.overrides)
	if strings.TrimSpace(r.logLevel) != "" {
		cfg.LogLevel = r.logLevel
	}
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

func (r *rootArgs) container(ctx context.Context) (*dependency.Container, error) {
	cfg, err := r.loadConfig()
	if err != nil {
		return nil, err
	}
	return dependency.New(ctx, &cfg)
}
