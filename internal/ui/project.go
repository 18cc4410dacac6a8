package ui

import (
	"fmt"

	"contract-agent/internal/agent"
)

// Project 使用默认卡片映射推导界面列表。
func Project(chatID string, messages []agent.Message) []Entry {
	return DefaultCards().Project(chatID, messages)
}

// Project 是纯函数：过滤 system 消息，按角色映射节点，id 为 <chatID>-<过滤后下标>。
func (c Cards) Project(chatID string, messages []agent.Message) []Entry {
	out := make([]Entry, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == agent.RoleSystem {
			continue
		}
		out = append(out, Entry{
			ID:      fmt.Sprintf("%s-%d", chatID, len(out)),
			Display: c.display(msg),
		})
	}
	return out
}

func (c Cards) display(msg agent.Message) *Node {
	switch msg.Role {
	case agent.RoleTool:
		children := make([]*Node, 0, len(msg.Parts))
		for _, part := range msg.Parts {
			children = append(children, c.resultCard(part))
		}
		return Fragment(children...)
	case agent.RoleUser:
		return UserMessage(msg.Content)
	case agent.RoleAssistant:
		if msg.Structured() {
			return nil
		}
		return BotMessage(msg.Content)
	}
	return nil
}

func (c Cards) resultCard(part agent.Part) *Node {
	if part.Type != agent.PartToolResult {
		return nil
	}
	variant, ok := c.Variant(part.ToolName)
	if !ok {
		return nil
	}
	return BotCard(Card(variant, part.Result))
}
