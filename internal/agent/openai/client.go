package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"contract-agent/internal/agent"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

type Options struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	api   *openai.Client
	model string
}

// 确保Client实现了agent.ModelClient接口
var _ agent.ModelClient = (*Client)(nil)

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	cfg := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		cfg = append(cfg, option.WithBaseURL(strings.TrimRight(normalizeBaseURL(base), "/")))
	}
	client := openai.NewClient(cfg...)

	return &Client{
		api:   &client,
		model: opts.Model,
	}, nil
}

func (c *Client) resolveModel(model string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return c.model
}

func (c *Client) buildParams(prompt agent.Prompt) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.resolveModel(prompt.Model)),
		Messages: toChatMessages(prompt),
	}
	if len(prompt.Tools) > 0 {
		params.Tools = toChatTools(prompt.Tools)
		params.ParallelToolCalls = openai.Bool(false)
	}
	return params
}

func (c *Client) Complete(ctx context.Context, prompt agent.Prompt) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, c.buildParams(prompt))
	if err != nil {
		return "", wrapHTTPError(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Stream(ctx context.Context, prompt agent.Prompt, onEvent func(agent.StreamEvent)) error {
	stream := c.api.Chat.Completions.NewStreaming(ctx, c.buildParams(prompt))
	defer stream.Close()
	collector := newToolCallCollector()

	for stream.Next() {
		chunk := stream.Current()
		for _, choice := range chunk.Choices {
			if choice.Delta.Content != "" {
				onEvent(agent.StreamEvent{Type: agent.StreamEventTextDelta, Text: choice.Delta.Content})
			}
			for _, call := range choice.Delta.ToolCalls {
				collector.Add(call.Index, call.ID, call.Function.Name, call.Function.Arguments)
			}
			if choice.FinishReason == "tool_calls" {
				collector.Flush(onEvent)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return wrapHTTPError(err)
	}
	collector.Flush(onEvent)
	onEvent(agent.StreamEvent{Type: agent.StreamEventCompleted})
	return nil
}

func toChatMessages(prompt agent.Prompt) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(prompt.Messages)+1)
	if system := strings.TrimSpace(prompt.System); system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range prompt.Messages {
		switch msg.Role {
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case agent.RoleAssistant:
			if !msg.Structured() {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			out = append(out, toAssistantToolCalls(msg.Parts))
		case agent.RoleTool:
			for _, part := range msg.Parts {
				if part.Type != agent.PartToolResult {
					continue
				}
				out = append(out, openai.ToolMessage(resultText(part.Result), part.ToolCallID))
			}
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

func toAssistantToolCalls(parts []agent.Part) openai.ChatCompletionMessageParamUnion {
	calls := make([]openai.ChatCompletionMessageToolCallUnionParam, 0, len(parts))
	for _, part := range parts {
		if part.Type != agent.PartToolCall {
			continue
		}
		args := strings.TrimSpace(string(part.Args))
		if args == "" {
			args = "{}"
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: part.ToolCallID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      part.ToolName,
					Arguments: args,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{
		OfAssistant: &openai.ChatCompletionAssistantMessageParam{ToolCalls: calls},
	}
}

// resultText 将 JSON 字符串结果解包为纯文本，其余结构保持原始 JSON。
func resultText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(raw))
}

func toChatTools(specs []agent.ToolSpec) []openai.ChatCompletionToolUnionParam {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			continue
		}
		fn := shared.FunctionDefinitionParam{
			Name:       name,
			Parameters: spec.Parameters,
			Strict:     openai.Bool(true),
		}
		if desc := strings.TrimSpace(spec.Description); desc != "" {
			fn.Description = openai.String(desc)
		}
		tools = append(tools, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: fn,
			},
		})
	}
	return tools
}

func wrapHTTPError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		respDump := strings.TrimSpace(string(apiErr.DumpResponse(true)))
		if respDump != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, respDump)
		}
		raw := strings.TrimSpace(apiErr.RawJSON())
		if raw != "" {
			return fmt.Errorf("http_%d: %s", apiErr.StatusCode, raw)
		}
		return fmt.Errorf("http_%d: %v", apiErr.StatusCode, err)
	}
	return err
}

// toolCallCollector 按 index 聚合流式分片；只有首个分片携带 id 与 name。
type toolCallCollector struct {
	calls map[int64]*pendingToolCall
}

type pendingToolCall struct {
	ID   string
	Name string
	Args strings.Builder
}

func newToolCallCollector() *toolCallCollector {
	return &toolCallCollector{
		calls: make(map[int64]*pendingToolCall),
	}
}

func (c *toolCallCollector) Add(index int64, id, name, args string) {
	entry := c.calls[index]
	if entry == nil {
		entry = &pendingToolCall{}
		c.calls[index] = entry
	}
	if id != "" {
		entry.ID = id
	}
	if name != "" {
		entry.Name = name
	}
	if args != "" {
		entry.Args.WriteString(args)
	}
}

func (c *toolCallCollector) Flush(onEvent func(agent.StreamEvent)) {
	if len(c.calls) == 0 {
		return
	}
	indexes := make([]int64, 0, len(c.calls))
	for idx := range c.calls {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	for _, idx := range indexes {
		call := c.calls[idx]
		if call == nil || strings.TrimSpace(call.Name) == "" {
			continue
		}
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call-%d", idx+1)
		}
		args := strings.TrimSpace(call.Args.String())
		if args == "" {
			args = "{}"
		}
		onEvent(agent.StreamEvent{
			Type: agent.StreamEventToolCall,
			ToolCall: &agent.ToolCall{
				ID:        id,
				Name:      call.Name,
				Arguments: json.RawMessage(args),
			},
		})
	}
	c.calls = make(map[int64]*pendingToolCall)
}
