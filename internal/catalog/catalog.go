// Package catalog 从远程工具目录（或本地文件）读取可调用的合约操作列表。
package catalog

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"contract-agent/internal/config"
)

// Kind 区分会修改链上状态的 entry 操作与只读的 view 操作。
type Kind string

const (
	KindEntry Kind = "entry"
	KindView  Kind = "view"
)

var ErrBadStatus = errors.New("catalog: unexpected status")

type Param struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

type Tool struct {
	Description string           `json:"description" yaml:"description"`
	Type        Kind             `json:"type" yaml:"type"`
	Params      map[string]Param `json:"params" yaml:"params"`
}

// Entry 对应目录数组中的一项。
type Entry struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"_id" yaml:"_id"`
	Type string `json:"type" yaml:"type"`
	Tool Tool   `json:"tool" yaml:"tool"`
}

// Kind 优先使用 tool.type，其次是顶层 type，默认按 entry 处理。
func (e Entry) Kind() Kind {
	for _, raw := range []string{string(e.Tool.Type), e.Type} {
		switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
		case KindView:
			return KindView
		case KindEntry:
			return KindEntry
		}
	}
	return KindEntry
}

// Source 返回当前的目录快照；每个用户回合调用一次，不做缓存。
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// New 根据配置选择 HTTP 或本地文件来源。
func New(cfg config.Catalog) Source {
	raw := strings.TrimSpace(cfg.URL)
	if isLocalPath(raw) {
		return FileSource{Path: raw, Type: cfg.Type}
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return NewHTTPSource(raw, cfg.UserID, cfg.Type, timeout)
}

func isLocalPath(raw string) bool {
	if raw == "" {
		return false
	}
	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return false
	}
	switch strings.ToLower(filepath.Ext(raw)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return strings.HasPrefix(raw, "file://")
}

// Static 是固定列表来源，CLI 离线模式与测试使用。
type Static []Entry

func (s Static) Fetch(context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	copy(out, s)
	return out, nil
}

func filterKind(entries []Entry, typ string) []Entry {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if string(e.Kind()) == strings.ToLower(typ) {
			out = append(out, e)
		}
	}
	return out
}
