// Package chat 定义持久化的聊天记录以及存储契约。
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/state"
)

var ErrNotFound = errors.New("chat: not found")

const titleLimit = 100

// Chat 是每个已完成回合之后保存的记录。
type Chat struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	UserID    string          `json:"userId"`
	CreatedAt time.Time       `json:"createdAt"`
	Messages  []agent.Message `json:"messages"`
	Path      string          `json:"path"`
}

// Store 是聊天记录的持久化后端。Save 为 upsert，已存在的记录保留 CreatedAt。
type Store interface {
	Save(ctx context.Context, c *Chat) error
	Get(ctx context.Context, id string) (*Chat, error)
	List(ctx context.Context, userID string) ([]*Chat, error)
	Delete(ctx context.Context, id string) error
}

// Title 截取首条用户消息的前 100 个字符。
func Title(s state.State) string {
	text := strings.TrimSpace(s.FirstUserText())
	runes := []rune(text)
	if len(runes) > titleLimit {
		runes = runes[:titleLimit]
	}
	return string(runes)
}

func PathFor(id string) string {
	return "/chat/" + id
}

// NewRecord 由提交后的会话状态构造记录。
func NewRecord(s state.State, userID string, now time.Time) *Chat {
	return &Chat{
		ID:        s.ChatID,
		Title:     Title(s),
		UserID:    userID,
		CreatedAt: now,
		Messages:  s.Messages,
		Path:      PathFor(s.ChatID),
	}
}

// State 还原为可继续对话的会话状态。
func (c *Chat) State() state.State {
	return state.State{ChatID: c.ID, Messages: c.Messages}
}

// CommitHook 返回把每次回合提交写入 store 的钩子。
func CommitHook(store Store, userID string) state.CommitFunc {
	return func(ctx context.Context, s state.State) error {
		return store.Save(ctx, NewRecord(s, userID, time.Now().UTC()))
	}
}

// Loader 让状态存储在首次打开会话时从 store 恢复历史。
func Loader(store Store) state.Loader {
	return func(ctx context.Context, chatID string) (state.State, bool, error) {
		c, err := store.Get(ctx, chatID)
		if errors.Is(err, ErrNotFound) {
			return state.State{}, false, nil
		}
		if err != nil {
			return state.State{}, false, err
		}
		return c.State(), true, nil
	}
}
