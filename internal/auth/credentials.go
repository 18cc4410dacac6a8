package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Credentials 是 CLI 本地保存的会话令牌。
type Credentials struct {
	Token   string    `json:"token"`
	UserID  string    `json:"user_id"`
	Updated time.Time `json:"updated"`
}

// DefaultCredentialsPath 返回 ~/.contract-agent/auth.json。
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".contract-agent", "auth.json"), nil
}

// SaveToken persists a session token for later CLI calls.
func SaveToken(path, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(Credentials{Token: token, UserID: userID, Updated: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadToken loads the stored credentials, returning a zero value when none is present.
func LoadToken(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, nil
		}
		return Credentials{}, err
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, err
	}
	creds.Token = strings.TrimSpace(creds.Token)
	return creds, nil
}

// Clear removes any stored credentials.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
