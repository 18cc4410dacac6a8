package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"contract-agent/internal/logger"
)

type StreamEventType string

const (
	StreamEventTextDelta StreamEventType = "text_delta"
	StreamEventToolCall  StreamEventType = "tool_call"
	StreamEventCompleted StreamEventType = "completed"
)

// ToolCall 是模型流式输出中已完整拼接的一次工具选择。
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

type StreamEvent struct {
	Type     StreamEventType
	Text     string
	ToolCall *ToolCall
}

// ModelClient 定义模型客户端接口
type ModelClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt, onEvent func(StreamEvent)) error
}

// EchoClient is a fallback when no API key is available.
type EchoClient struct {
	Prefix string
}

var _ ModelClient = EchoClient{}

func (c EchoClient) Complete(_ context.Context, prompt Prompt) (string, error) {
	for i := len(prompt.Messages) - 1; i >= 0; i-- {
		msg := prompt.Messages[i]
		if msg.Role == RoleUser && !msg.Structured() {
			return c.Prefix + msg.Content, nil
		}
	}
	return "", errors.New("no messages to echo")
}

func (c EchoClient) Stream(ctx context.Context, prompt Prompt, onEvent func(StreamEvent)) error {
	text, err := c.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	onEvent(StreamEvent{Type: StreamEventTextDelta, Text: text})
	onEvent(StreamEvent{Type: StreamEventCompleted})
	return nil
}

// ToLLMMessages 将内部消息转换为日志友好的结构。
func ToLLMMessages(prompt Prompt) []logger.LLMMessage {
	out := make([]logger.LLMMessage, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		out = append(out, logger.LLMMessage{Role: string(RoleSystem), Content: prompt.System})
	}
	for _, msg := range prompt.Messages {
		content := msg.Content
		if msg.Structured() {
			content = summarizeParts(msg.Parts)
		}
		out = append(out, logger.LLMMessage{Role: string(msg.Role), Content: content})
	}
	return out
}

func summarizeParts(parts []Part) string {
	var out string
	for i, p := range parts {
		if i > 0 {
			out += "; "
		}
		switch p.Type {
		case PartToolCall:
			out += fmt.Sprintf("%s %s(%s) id=%s", p.Type, p.ToolName, p.Args, p.ToolCallID)
		default:
			out += fmt.Sprintf("%s %s=%s id=%s", p.Type, p.ToolName, p.Result, p.ToolCallID)
		}
	}
	return out
}
