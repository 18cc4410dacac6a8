package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileSource 从本地 JSON/YAML 文件读取目录，格式与 HTTP 响应一致。
type FileSource struct {
	Path string
	Type string
}

func (s FileSource) Fetch(_ context.Context) ([]Entry, error) {
	path := strings.TrimPrefix(s.Path, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}

	var entries []Entry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	return filterKind(entries, s.Type), nil
}
