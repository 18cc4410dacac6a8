package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"contract-agent/internal/prompts"

	"github.com/pelletier/go-toml/v2"
)

// Config 是唯一持久化的配置文件结构（~/.contract-agent/config.toml）。
type Config struct {
	LogLevel string  `toml:"log_level"`
	Model    Model   `toml:"model"`
	Catalog  Catalog `toml:"catalog"`
	Tools    Tools   `toml:"tools"`
	Server   Server  `toml:"server"`
	Store    Store   `toml:"store"`
	UI       UI      `toml:"ui"`
	Source   string  `toml:"-"`
}

// Model 描述补全 API 的提供方与凭据。
type Model struct {
	Provider string `toml:"provider"` // openai|anthropic|echo
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Name     string `toml:"name"`
	System   string `toml:"system"`
}

// Catalog 描述远程工具目录。URL 也可以是本地 .json/.yaml 文件路径。
type Catalog struct {
	URL            string `toml:"url"`
	UserID         string `toml:"user_id"`
	Type           string `toml:"type"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Required       bool   `toml:"required"`
}

// Tools 控制生成器的固定行为。
type Tools struct {
	EntryDelayMs int    `toml:"entry_delay_ms"`
	ViewSystem   string `toml:"view_system"`
	ViewPrompt   string `toml:"view_prompt"`
}

type Server struct {
	Addr      string `toml:"addr"`
	JWTSecret string `toml:"jwt_secret"`

	// SessionIdleMinutes 之后未活动的内存会话会被清理，0 表示不清理。
	SessionIdleMinutes int `toml:"session_idle_minutes"`
}

// Store 选择聊天记录的持久化后端：file|sqlite|postgres|mysql。
type Store struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
	Dir    string `toml:"dir"`
}

type UI struct {
	// Cards 追加 toolName -> 卡片变体 的映射。
	Cards map[string]string `toml:"cards"`
}

const (
	DefaultCatalogURL = "https://prompt-agent-smartcontract-tool.vercel.app/api/tools"
)

// 提示词默认值为内置引用，容器构造时经 prompts.Resolve 展开。
var (
	DefaultSystem     = prompts.Ref(prompts.PromptSystem)
	DefaultViewSystem = prompts.Ref(prompts.PromptViewSystem)
	DefaultViewPrompt = prompts.Ref(prompts.PromptViewPrompt)
)

func Default() Config {
	return Config{
		LogLevel: "info",
		Model: Model{
			Provider: "openai",
			Name:     "gpt-3.5-turbo",
			System:   DefaultSystem,
		},
		Catalog: Catalog{
			URL:            DefaultCatalogURL,
			UserID:         "kurodenjiro",
			TimeoutSeconds: 15,
		},
		Tools: Tools{
			EntryDelayMs: 1000,
			ViewSystem:   DefaultViewSystem,
			ViewPrompt:   DefaultViewPrompt,
		},
		Server: Server{Addr: ":8080", SessionIdleMinutes: 60},
		Store:  Store{Driver: "file", Dir: defaultStoreDir()},
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".contract-agent", "config.toml")
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".contract-agent", "chats")
	}
	return filepath.Join(home, ".contract-agent", "chats")
}

// Load 读取配置文件；文件不存在时使用默认值。环境变量始终覆盖文件内容。
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	} else if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, key := range keys {
			if env := strings.TrimSpace(os.Getenv(key)); env != "" {
				*dst = env
				return
			}
		}
	}
	switch strings.ToLower(cfg.Model.Provider) {
	case "anthropic":
		set(&cfg.Model.APIKey, "ANTHROPIC_API_KEY", "ANTHROPIC_AUTH_TOKEN")
		set(&cfg.Model.BaseURL, "ANTHROPIC_BASE_URL")
	default:
		set(&cfg.Model.APIKey, "OPENAI_API_KEY")
		set(&cfg.Model.BaseURL, "OPENAI_BASE_URL")
	}
	set(&cfg.Catalog.URL, "TOOL_CATALOG_URL")
	set(&cfg.Catalog.UserID, "TOOL_CATALOG_USER_ID")
	set(&cfg.Server.JWTSecret, "AUTH_SECRET")
	set(&cfg.Store.DSN, "DATABASE_URL")
}
