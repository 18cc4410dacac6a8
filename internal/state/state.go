// Package state 保存服务端持有的会话状态，按 chatID 分会话，
// 每个回合通过 read / stage / commit 三步修改。
package state

import (
	"contract-agent/internal/agent"
)

// State 是值类型快照。Append 总是分配新的底层数组，旧快照保持不变。
type State struct {
	ChatID   string          `json:"chatId"`
	Messages []agent.Message `json:"messages"`
}

func New(chatID string) State {
	return State{ChatID: chatID}
}

func (s State) Append(msgs ...agent.Message) State {
	next := make([]agent.Message, 0, len(s.Messages)+len(msgs))
	next = append(next, s.Messages...)
	next = append(next, msgs...)
	return State{ChatID: s.ChatID, Messages: next}
}

// Last 返回最后一条消息。
func (s State) Last() (agent.Message, bool) {
	if len(s.Messages) == 0 {
		return agent.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// FirstUserText 返回第一条纯文本用户消息，用于生成标题。
func (s State) FirstUserText() string {
	for _, m := range s.Messages {
		if m.Role == agent.RoleUser && !m.Structured() {
			return m.Content
		}
	}
	return ""
}
