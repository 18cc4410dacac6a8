package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"contract-agent/internal/ui"

	"github.com/charmbracelet/lipgloss"
)

type Styles struct {
	Dim    lipgloss.Style
	User   lipgloss.Style
	Bot    lipgloss.Style
	System lipgloss.Style
	Kind   lipgloss.Style
	Card   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Dim:    lipgloss.NewStyle().Faint(true),
		User:   lipgloss.NewStyle().Bold(true),
		Bot:    lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")),
		System: lipgloss.NewStyle().Faint(true).Italic(true),
		Kind:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true),
		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5E6472")).
			Padding(0, 1),
	}
}

// Node 将节点树格式化为终端文本；nil 节点输出空字符串。
func (s Styles) Node(n *ui.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case ui.NodeSpinner:
		return s.Dim.Render("…")
	case ui.NodeUserMessage:
		return s.User.Render("> " + n.Text)
	case ui.NodeBotMessage:
		return s.Bot.Render(n.Text)
	case ui.NodeSystemMessage:
		return s.System.Render(n.Text)
	case ui.NodeSkeleton:
		return s.Dim.Render("loading " + n.Variant + "…")
	case ui.NodeCard:
		return s.card(n)
	default:
		return s.children(n.Children)
	}
}

func (s Styles) children(children []*ui.Node) string {
	parts := make([]string, 0, len(children))
	for _, c := range children {
		if out := s.Node(c); out != "" {
			parts = append(parts, out)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s Styles) card(n *ui.Node) string {
	lines := []string{s.Kind.Render(n.Variant)}
	if n.Text != "" {
		lines = append(lines, n.Text)
	}
	if body := prettyProps(n.Props); body != "" {
		lines = append(lines, body)
	}
	return s.Card.Render(strings.Join(lines, "\n"))
}

func prettyProps(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
