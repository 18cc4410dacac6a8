package ui

import (
	"encoding/json"
	"strconv"
	"testing"

	"contract-agent/internal/agent"
)

func sampleMessages() []agent.Message {
	return []agent.Message{
		{ID: "1", Role: agent.RoleUser, Content: "add an rfp"},
		agent.ToolCallMessage("c1", "addRFP", json.RawMessage(`{"title":"audit"}`)),
		agent.ToolResultMessage("c1", "addRFP", json.RawMessage(`{"title":"audit"}`)),
		{ID: "2", Role: agent.RoleSystem, Content: "[User has purchased 1 shares of X at 2. Total cost = 2]"},
		{ID: "3", Role: agent.RoleAssistant, Content: "done"},
		agent.ToolCallMessage("c2", "mystery", json.RawMessage(`{}`)),
		agent.ToolResultMessage("c2", "mystery", json.RawMessage(`{}`)),
		{ID: "4", Role: agent.RoleSystem, Content: "note"},
	}
}

func TestProject_ExcludesSystemMessages(t *testing.T) {
	msgs := sampleMessages()
	systems := 0
	for _, m := range msgs {
		if m.Role == agent.RoleSystem {
			systems++
		}
	}

	got := Project("chat1", msgs)
	if len(got) != len(msgs)-systems {
		t.Fatalf("entries = %d, want %d", len(got), len(msgs)-systems)
	}
	for i, e := range got {
		if want := "chat1-" + strconv.Itoa(i); e.ID != want {
			t.Fatalf("entry %d id = %q, want %q", i, e.ID, want)
		}
		if e.Display != nil && e.Display.Type == NodeSystemMessage {
			t.Fatalf("system message leaked at %d", i)
		}
	}
}

func TestProject_MapsRolesAndVariants(t *testing.T) {
	got := Project("c", sampleMessages())

	if got[0].Display.Type != NodeUserMessage || got[0].Display.Text != "add an rfp" {
		t.Fatalf("user entry = %#v", got[0].Display)
	}
	if got[1].Display != nil {
		t.Fatalf("structured assistant content should render nil, got %#v", got[1].Display)
	}
	tool := got[2].Display
	if tool.Type != NodeFragment || len(tool.Children) != 1 {
		t.Fatalf("tool entry = %#v", tool)
	}
	card := tool.Children[0]
	if card.Type != NodeBotCard || card.Children[0].Variant != VariantAddRFP {
		t.Fatalf("card = %#v", card)
	}
	if string(card.Children[0].Props) != `{"title":"audit"}` {
		t.Fatalf("props = %s", card.Children[0].Props)
	}
	if got[3].Display.Type != NodeBotMessage || got[3].Display.Text != "done" {
		t.Fatalf("assistant text entry = %#v", got[3].Display)
	}
	unknown := got[5].Display
	if unknown == nil || len(unknown.Children) != 1 || unknown.Children[0] != nil {
		t.Fatalf("unknown tool should render a nil child, got %#v", unknown)
	}
}

func TestCards_ConfigExtendsDefaults(t *testing.T) {
	cards := NewCards(map[string]string{"mystery": VariantBalance, "": "x"})
	got := cards.Project("c", sampleMessages())
	if child := got[5].Display.Children[0]; child == nil || child.Children[0].Variant != VariantBalance {
		t.Fatalf("configured variant not applied: %#v", got[5].Display)
	}
	if v, ok := cards.Variant("getBalance"); !ok || v != VariantBalance {
		t.Fatalf("default variant lost: %q %v", v, ok)
	}
	if cards.VariantOrDefault("nope") != VariantToolResult {
		t.Fatalf("fallback variant")
	}
	if v, ok := (Cards{}).Variant("balanceOf"); !ok || v != VariantBalance {
		t.Fatalf("zero Cards should use defaults")
	}
}

func TestNodeJSONKeepsNilChildren(t *testing.T) {
	raw, err := json.Marshal(Fragment(nil, BotMessage("x")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"type":"fragment","children":[null,{"type":"bot-message","text":"x"}]}` {
		t.Fatalf("json = %s", raw)
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := BotCard(Card("balance", json.RawMessage(`{"a":1}`)))
	cp := orig.Clone()
	cp.Children[0].Variant = "changed"
	cp.Children[0].Props[1] = 'b'
	if orig.Children[0].Variant != "balance" || string(orig.Children[0].Props) != `{"a":1}` {
		t.Fatalf("clone shares state with original")
	}
}
