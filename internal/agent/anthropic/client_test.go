package anthropic

import (
	"encoding/json"
	"testing"

	"contract-agent/internal/agent"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

func TestBuildMessageParamsRegistersToolsAndEncodesToolBlocks(t *testing.T) {
	prompt := agent.Prompt{
		Model:  "claude-test",
		System: "system",
		Tools: []agent.ToolSpec{{
			Name:        "getBalance",
			Description: "Read a balance",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{"owner": map[string]any{"type": "string"}},
				"required":             []string{"owner"},
				"additionalProperties": false,
			},
		}},
		Messages: []agent.Message{
			{Role: agent.RoleUser, Content: "show balance of 0x123"},
			agent.ToolCallMessage("toolu_1", "getBalance", json.RawMessage(`{"owner":"0x123"}`)),
			agent.ToolResultMessage("toolu_1", "getBalance", json.RawMessage(`"42"`)),
		},
	}

	params := buildMessageParams(prompt, anthropic.Model("claude-test"))

	if len(params.Tools) != 1 || params.Tools[0].OfTool == nil {
		t.Fatalf("tools = %#v", params.Tools)
	}
	tool := params.Tools[0].OfTool
	if tool.Name != "getBalance" || len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "owner" {
		t.Fatalf("unexpected tool: %#v", tool)
	}

	if len(params.System) != 1 || params.System[0].Text != "system" {
		t.Fatalf("system = %#v, want single system block", params.System)
	}
	if len(params.Messages) != 3 {
		t.Fatalf("messages count = %d, want 3", len(params.Messages))
	}

	call := params.Messages[1]
	if call.Role != anthropic.MessageParamRoleAssistant {
		t.Fatalf("messages[1].role = %s, want assistant", call.Role)
	}
	if len(call.Content) != 1 || call.Content[0].OfToolUse == nil {
		t.Fatalf("messages[1] should contain tool_use block, got %#v", call.Content)
	}
	if call.Content[0].OfToolUse.ID != "toolu_1" || call.Content[0].OfToolUse.Name != "getBalance" {
		t.Fatalf("unexpected tool_use payload: %#v", call.Content[0].OfToolUse)
	}

	result := params.Messages[2]
	if result.Role != anthropic.MessageParamRoleUser {
		t.Fatalf("messages[2].role = %s, want user", result.Role)
	}
	if len(result.Content) != 1 || result.Content[0].OfToolResult == nil {
		t.Fatalf("messages[2] should contain tool_result block, got %#v", result.Content)
	}
	toolResult := result.Content[0].OfToolResult
	if toolResult.ToolUseID != "toolu_1" {
		t.Fatalf("tool_result.tool_use_id = %q, want toolu_1", toolResult.ToolUseID)
	}
	if len(toolResult.Content) != 1 || toolResult.Content[0].OfText == nil || toolResult.Content[0].OfText.Text != "42" {
		t.Fatalf("tool_result.content = %#v, want text 42", toolResult.Content)
	}
}

func TestNormalizeBaseURLStripsV1(t *testing.T) {
	cases := map[string]string{
		"":                           "",
		"https://api.anthropic.com":  "https://api.anthropic.com",
		"https://proxy.test/v1/":     "https://proxy.test",
		"https://proxy.test/claude/": "https://proxy.test/claude",
	}
	for in, want := range cases {
		if got := normalizeBaseURL(in); got != want {
			t.Fatalf("normalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(Options{Token: "  "}); err == nil {
		t.Fatalf("New() expected error for empty token")
	}
}
