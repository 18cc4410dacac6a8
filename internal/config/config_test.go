package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "ANTHROPIC_AUTH_TOKEN",
		"ANTHROPIC_BASE_URL", "TOOL_CATALOG_URL", "TOOL_CATALOG_USER_ID", "AUTH_SECRET", "DATABASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_MissingFile_UsesDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != path {
		t.Fatalf("cfg.Source = %q, want %q", cfg.Source, path)
	}
	if cfg.Model.Name != "gpt-3.5-turbo" {
		t.Fatalf("cfg.Model.Name = %q, want gpt-3.5-turbo", cfg.Model.Name)
	}
	if cfg.Catalog.URL != DefaultCatalogURL || cfg.Catalog.UserID != "kurodenjiro" {
		t.Fatalf("unexpected catalog defaults: %+v", cfg.Catalog)
	}
	if cfg.Tools.EntryDelayMs != 1000 {
		t.Fatalf("EntryDelayMs = %d, want 1000", cfg.Tools.EntryDelayMs)
	}
}

func TestLoad_TOMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
log_level = "debug"

[model]
provider = "openai"
name = "gpt-4o-mini"
api_key = "file-key"

[catalog]
url = "http://catalog.test/api/tools"
type = "view"
required = true

[store]
driver = "sqlite"
dsn = "file:chats.db"

[ui.cards]
getReserve = "balance"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Name != "gpt-4o-mini" {
		t.Fatalf("Model.Name = %q", cfg.Model.Name)
	}
	if cfg.Model.APIKey != "env-key" {
		t.Fatalf("Model.APIKey = %q, want env override", cfg.Model.APIKey)
	}
	if cfg.Catalog.Type != "view" || !cfg.Catalog.Required {
		t.Fatalf("unexpected catalog: %+v", cfg.Catalog)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN != "file:chats.db" {
		t.Fatalf("unexpected store: %+v", cfg.Store)
	}
	if cfg.UI.Cards["getReserve"] != "balance" {
		t.Fatalf("ui cards = %v", cfg.UI.Cards)
	}
	// 未写入文件的字段保持默认值。
	if cfg.Tools.EntryDelayMs != 1000 {
		t.Fatalf("EntryDelayMs = %d, want default", cfg.Tools.EntryDelayMs)
	}
}

func TestLoad_AnthropicEnvKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[model]\nprovider = \"anthropic\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "openai-key")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.APIKey != "anthropic-key" {
		t.Fatalf("Model.APIKey = %q, want anthropic-key", cfg.Model.APIKey)
	}
}

func TestApplyKVOverrides(t *testing.T) {
	got := ApplyKVOverrides(Default(), []string{
		"model=override-model",
		"catalog.required=true",
		"entry_delay_ms=0",
		"ui.cards.getBalance=balance",
		"garbage",
		"store.driver = postgres",
	})
	if got.Model.Name != "override-model" {
		t.Fatalf("Model.Name = %q", got.Model.Name)
	}
	if !got.Catalog.Required {
		t.Fatalf("Catalog.Required not set")
	}
	if got.Tools.EntryDelayMs != 0 {
		t.Fatalf("EntryDelayMs = %d, want 0", got.Tools.EntryDelayMs)
	}
	if got.UI.Cards["getBalance"] != "balance" {
		t.Fatalf("UI.Cards = %v", got.UI.Cards)
	}
	if got.Store.Driver != "postgres" {
		t.Fatalf("Store.Driver = %q", got.Store.Driver)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Catalog.Type = "entry"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Catalog.Type != "entry" {
		t.Fatalf("Catalog.Type = %q", loaded.Catalog.Type)
	}
	if loaded.Server.SessionIdleMinutes != 60 {
		t.Fatalf("Server.SessionIdleMinutes = %d", loaded.Server.SessionIdleMinutes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.HasPrefix(string(data), "# contract-agent configuration") || !strings.Contains(string(data), "0x1bankgetBalance") {
		t.Fatalf("missing ui.cards note in header:\n%s", data)
	}
}
