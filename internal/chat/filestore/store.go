// Package filestore 以每个聊天一个 JSON 文件的方式保存记录。
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"contract-agent/internal/chat"
	"contract-agent/internal/logger"
)

type Store struct {
	mu  sync.Mutex
	dir string
}

var _ chat.Store = (*Store)(nil)

// New 使用 dir 作为存储目录，目录在首次写入时创建。
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) ensureDir() error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid chat id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *Store) Save(_ context.Context, c *chat.Chat) error {
	path, err := s.path(c.ID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureDir(); err != nil {
		return err
	}

	rec := *c
	if prev, err := s.load(path); err == nil && !prev.CreatedAt.IsZero() {
		rec.CreatedAt = prev.CreatedAt
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) Get(_ context.Context, id string) (*chat.Chat, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, chat.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(path)
}

func (s *Store) load(path string) (*chat.Chat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, chat.ErrNotFound
		}
		return nil, err
	}
	var rec chat.Chat
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &rec, nil
}

// List 返回 userID 的聊天，按创建时间倒序；损坏的文件跳过并记录。
func (s *Store) List(_ context.Context, userID string) ([]*chat.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []*chat.Chat
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		rec, err := s.load(filepath.Join(s.dir, e.Name()))
		if err != nil {
			logger.Named("chatstore").WithError(err).WithField("file", e.Name()).Warn("skipping unreadable chat")
			continue
		}
		if rec.UserID != userID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return chat.ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return chat.ErrNotFound
		}
		return err
	}
	return nil
}
