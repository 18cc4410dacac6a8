package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "log_level":
			cfg.LogLevel = val
		case "provider", "model.provider":
			cfg.Model.Provider = val
		case "model", "model.name":
			cfg.Model.Name = val
		case "api_key", "model.api_key":
			cfg.Model.APIKey = val
		case "base_url", "model.base_url":
			cfg.Model.BaseURL = val
		case "system", "model.system":
			cfg.Model.System = val
		case "catalog", "catalog.url":
			cfg.Catalog.URL = val
		case "user_id", "catalog.user_id":
			cfg.Catalog.UserID = val
		case "catalog.type":
			cfg.Catalog.Type = val
		case "catalog.required":
			if b, err := strconv.ParseBool(val); err == nil {
				cfg.Catalog.Required = b
			}
		case "catalog.timeout_seconds":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.Catalog.TimeoutSeconds = n
			}
		case "entry_delay_ms", "tools.entry_delay_ms":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.Tools.EntryDelayMs = n
			}
		case "addr", "server.addr":
			cfg.Server.Addr = val
		case "jwt_secret", "server.jwt_secret":
			cfg.Server.JWTSecret = val
		case "server.session_idle_minutes":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.Server.SessionIdleMinutes = n
			}
		case "store.driver":
			cfg.Store.Driver = val
		case "store.dsn":
			cfg.Store.DSN = val
		case "store.dir":
			cfg.Store.Dir = val
		default:
			if name, ok := strings.CutPrefix(key, "ui.cards."); ok && name != "" {
				if cfg.UI.Cards == nil {
					cfg.UI.Cards = map[string]string{}
				}
				cfg.UI.Cards[name] = val
			}
		}
	}
	return cfg
}
