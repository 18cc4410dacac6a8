package agent

import (
	"bytes"
	"encoding/json"

	"github.com/lithammer/shortuuid/v4"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

type PartType string

const (
	PartToolCall   PartType = "tool-call"
	PartToolResult PartType = "tool-result"
)

// Part 是 assistant/tool 消息中的结构化条目。
type Part struct {
	Type       PartType        `json:"type"`
	ToolName   string          `json:"toolName"`
	ToolCallID string          `json:"toolCallId"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// Message 的内容要么是纯文本（Parts 为空），要么是结构化条目序列。
type Message struct {
	ID      string
	Role    Role
	Content string
	Parts   []Part
}

// NewID 生成消息与工具调用使用的短 id。
func NewID() string {
	return shortuuid.New()
}

// Structured 报告消息内容是否为结构化条目。
func (m Message) Structured() bool {
	return len(m.Parts) > 0
}

// ToolCallMessage 构造 assistant 侧的 tool-call 消息。
func ToolCallMessage(callID, toolName string, args json.RawMessage) Message {
	return Message{
		ID:   NewID(),
		Role: RoleAssistant,
		Parts: []Part{{
			Type:       PartToolCall,
			ToolName:   toolName,
			ToolCallID: callID,
			Args:       args,
		}},
	}
}

// ToolResultMessage 构造与 tool-call 配对的 tool-result 消息。
func ToolResultMessage(callID, toolName string, result json.RawMessage) Message {
	return Message{
		ID:   NewID(),
		Role: RoleTool,
		Parts: []Part{{
			Type:       PartToolResult,
			ToolName:   toolName,
			ToolCallID: callID,
			Result:     result,
		}},
	}
}

type wireMessage struct {
	ID      string          `json:"id"`
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// MarshalJSON 将 content 编码为字符串或条目数组，与持久化记录的格式一致。
func (m Message) MarshalJSON() ([]byte, error) {
	var (
		content []byte
		err     error
	)
	if m.Structured() {
		content, err = json.Marshal(m.Parts)
	} else {
		content, err = json.Marshal(m.Content)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireMessage{ID: m.ID, Role: m.Role, Content: content})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	m.ID = wire.ID
	m.Role = wire.Role
	m.Content = ""
	m.Parts = nil

	raw := bytes.TrimSpace(wire.Content)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '[' {
		return json.Unmarshal(raw, &m.Parts)
	}
	return json.Unmarshal(raw, &m.Content)
}
