package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"contract-agent/internal/config"

	"github.com/spf13/cobra"
)

func newInitCmd(root *rootArgs) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(root, force, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

// runInit 只写默认值与 -c 覆盖，不读取环境变量，避免把 API key 落盘。
func runInit(root *rootArgs, force bool, out io.Writer) error {
	path := root.cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	if path == "" {
		return errors.New("config path is empty and $HOME is not set")
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	cfg := config.ApplyKVOverrides(config.Default(), root.overrides)
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	log.WithField("path", path).Info("config written")
	fmt.Fprintln(out, path)
	return nil
}
