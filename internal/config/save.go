package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Save 以 0600 权限写回配置文件，path 为空时使用 DefaultPath。
func Save(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return errors.New("config path is empty and $HOME is not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(fileHeader), data...), 0o600)
}

// fileHeader 说明 [ui.cards] 的键是去掉 ':' 之后的工具名。
const fileHeader = `# contract-agent configuration
#
# [ui.cards] maps a tool name to a card variant (add-rfp, balance, tool-result).
# Keys are catalog names with every ':' removed, so "0x1::bank::getBalance"
# is written as:
#
#   [ui.cards]
#   0x1bankgetBalance = "balance"
#
# Only the plain names addRFP, getBalance and balanceOf are mapped by default.

`
