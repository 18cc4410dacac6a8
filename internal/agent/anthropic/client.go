package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"contract-agent/internal/agent"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultMaxTokens = 1024

type Options struct {
	Token   string
	BaseURL string
	Model   string
}

// messageStream 抽象 SDK 的流式迭代器，便于测试注入事件序列。
type messageStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
}

type Client struct {
	api       *anthropic.Client
	model     string
	newStream func(ctx context.Context, params anthropic.MessageNewParams) messageStream
}

var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("missing ANTHROPIC_API_KEY")
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(token),
	}
	if base := normalizeBaseURL(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	client := anthropic.NewClient(reqOpts...)
	c := &Client{
		api:   &client,
		model: strings.TrimSpace(opts.Model),
	}
	c.newStream = func(ctx context.Context, params anthropic.MessageNewParams) messageStream {
		return c.api.Messages.NewStreaming(ctx, params)
	}
	return c, nil
}

func normalizeBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
		base = strings.TrimRight(base, "/")
	}
	return base
}

func (c *Client) resolveModel(m string) anthropic.Model {
	if strings.TrimSpace(m) != "" {
		return anthropic.Model(strings.TrimSpace(m))
	}
	return anthropic.Model(c.model)
}

func (c *Client) Complete(ctx context.Context, prompt agent.Prompt) (string, error) {
	params := buildMessageParams(prompt, c.resolveModel(prompt.Model))
	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extractText(msg.Content)), nil
}

func (c *Client) Stream(ctx context.Context, prompt agent.Prompt, onEvent func(agent.StreamEvent)) error {
	params := buildMessageParams(prompt, c.resolveModel(prompt.Model))
	stream := c.newStream(ctx, params)
	state := newToolUseStreamState()

	for stream.Next() {
		if state.Handle(stream.Current().AsAny(), onEvent) {
			return nil
		}
	}
	if err := stream.Err(); err != nil {
		return err
	}
	state.flush(onEvent)
	onEvent(agent.StreamEvent{Type: agent.StreamEventCompleted})
	return nil
}

func buildMessageParams(prompt agent.Prompt, model anthropic.Model) anthropic.MessageNewParams {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	if text := strings.TrimSpace(prompt.System); text != "" {
		system = append(system, anthropic.TextBlockParam{Text: text})
	}
	for _, msg := range prompt.Messages {
		if msg.Structured() {
			if block, ok := toStructuredMessage(msg); ok {
				messages = append(messages, block)
			}
			continue
		}
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		switch msg.Role {
		case agent.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: text})
		case agent.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		Messages:  messages,
	}
	if len(system) > 0 {
		params.System = system
	}
	if len(prompt.Tools) > 0 {
		params.Tools = toTools(prompt.Tools)
	}
	return params
}

// toStructuredMessage 将 tool-call 编码为 assistant tool_use，将 tool-result 编码为 user tool_result。
func toStructuredMessage(msg agent.Message) (anthropic.MessageParam, bool) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range msg.Parts {
		switch part.Type {
		case agent.PartToolCall:
			args := part.Args
			if len(strings.TrimSpace(string(args))) == 0 {
				args = json.RawMessage(`{}`)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(part.ToolCallID, args, part.ToolName))
		case agent.PartToolResult:
			blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolCallID, resultText(part.Result), false))
		}
	}
	if len(blocks) == 0 {
		return anthropic.MessageParam{}, false
	}
	if msg.Role == agent.RoleAssistant {
		return anthropic.NewAssistantMessage(blocks...), true
	}
	return anthropic.NewUserMessage(blocks...), true
}

func toTools(specs []agent.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		tool := anthropic.ToolParam{
			Name: name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: spec.Properties(),
				Required:   spec.Required(),
			},
		}
		if desc := strings.TrimSpace(spec.Description); desc != "" {
			tool.Description = anthropic.String(desc)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return tools
}

func resultText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(raw))
}

func extractText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			sb.WriteString(v.Text)
		}
	}
	return sb.String()
}

// toolUseStreamState 收集 tool_use 块的 input_json_delta，块结束时产出完整的工具调用。
type toolUseStreamState struct {
	pending map[int64]*pendingToolUse
	order   []int64
}

type pendingToolUse struct {
	id      string
	name    string
	initial json.RawMessage
	partial strings.Builder
}

func newToolUseStreamState() *toolUseStreamState {
	return &toolUseStreamState{pending: make(map[int64]*pendingToolUse)}
}

// Handle 处理单个流事件，返回 true 表示消息已结束。
func (s *toolUseStreamState) Handle(event any, onEvent func(agent.StreamEvent)) bool {
	switch v := event.(type) {
	case anthropic.ContentBlockStartEvent:
		if b, ok := v.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			s.pending[v.Index] = &pendingToolUse{id: b.ID, name: b.Name, initial: b.Input}
			s.order = append(s.order, v.Index)
		}
	case anthropic.ContentBlockDeltaEvent:
		switch d := v.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if d.Text != "" {
				onEvent(agent.StreamEvent{Type: agent.StreamEventTextDelta, Text: d.Text})
			}
		case anthropic.InputJSONDelta:
			if p := s.pending[v.Index]; p != nil {
				p.partial.WriteString(d.PartialJSON)
			}
		}
	case anthropic.ContentBlockStopEvent:
		s.emit(v.Index, onEvent)
	case anthropic.MessageStopEvent:
		s.flush(onEvent)
		onEvent(agent.StreamEvent{Type: agent.StreamEventCompleted})
		return true
	}
	return false
}

func (s *toolUseStreamState) emit(index int64, onEvent func(agent.StreamEvent)) {
	p := s.pending[index]
	if p == nil {
		return
	}
	delete(s.pending, index)

	args := strings.TrimSpace(p.partial.String())
	if args == "" {
		args = strings.TrimSpace(string(p.initial))
	}
	if args == "" {
		args = "{}"
	}
	onEvent(agent.StreamEvent{
		Type: agent.StreamEventToolCall,
		ToolCall: &agent.ToolCall{
			ID:        p.id,
			Name:      p.name,
			Arguments: json.RawMessage(args),
		},
	})
}

func (s *toolUseStreamState) flush(onEvent func(agent.StreamEvent)) {
	for _, idx := range s.order {
		s.emit(idx, onEvent)
	}
	s.order = nil
}
