package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/state"
	"contract-agent/internal/ui"
)

// entryGenerator 模拟写操作：不提交任何交易，参数原样作为结果写回会话。
func (b *Builder) entryGenerator(d *Descriptor, turn *state.Turn) Generator {
	return func(_ context.Context, args json.RawMessage, yield func(*ui.Node)) (*ui.Node, error) {
		args = normalizeArgs(args)
		variant := b.Cards.VariantOrDefault(d.Name)
		yield(ui.BotCard(ui.Skeleton(variant)))

		// 固定延迟，不响应取消。
		if b.EntryDelay > 0 {
			time.Sleep(b.EntryDelay)
		}

		if err := commitPair(turn, d.Name, args, args); err != nil {
			return nil, err
		}
		return ui.BotCard(ui.Card(variant, args)), nil
	}
}

// viewGenerator 的结果来自第二次独立的模型调用，而不是链上读取。
func (b *Builder) viewGenerator(d *Descriptor, turn *state.Turn) Generator {
	return func(ctx context.Context, args json.RawMessage, yield func(*ui.Node)) (*ui.Node, error) {
		args = normalizeArgs(args)
		variant := b.Cards.VariantOrDefault(d.Name)
		yield(ui.BotCard(ui.Skeleton(variant)))

		if b.Model == nil {
			return nil, fmt.Errorf("tool %s: no model client for view query", d.Name)
		}
		text, err := b.Model.Complete(ctx, agent.Prompt{
			System:   b.viewInstruction(d, args),
			Messages: []agent.Message{{ID: agent.NewID(), Role: agent.RoleUser, Content: b.ViewPrompt}},
		})
		if err != nil {
			return nil, fmt.Errorf("tool %s: view query: %w", d.Name, err)
		}
		result, err := json.Marshal(strings.TrimSpace(text))
		if err != nil {
			return nil, err
		}
		if err := commitPair(turn, d.Name, args, result); err != nil {
			return nil, err
		}
		return ui.BotCard(ui.Card(variant, result)), nil
	}
}

func (b *Builder) viewInstruction(d *Descriptor, args json.RawMessage) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(b.ViewSystem))
	sb.WriteString("\n\nTool: ")
	sb.WriteString(d.Name)
	if desc := strings.TrimSpace(d.Description); desc != "" {
		sb.WriteString("\nDescription: ")
		sb.WriteString(desc)
	}
	sb.WriteString("\nArguments: ")
	sb.Write(args)
	return sb.String()
}

// commitPair 在同一次状态转换中提交 tool-call 与配对的 tool-result。
func commitPair(turn *state.Turn, name string, args, result json.RawMessage) error {
	callID := agent.NewID()
	next := turn.Get().Append(
		agent.ToolCallMessage(callID, name, args),
		agent.ToolResultMessage(callID, name, result),
	)
	if err := turn.Done(next); err != nil {
		return fmt.Errorf("tool %s: commit: %w", name, err)
	}
	return nil
}

func normalizeArgs(args json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(trimmed)
}
