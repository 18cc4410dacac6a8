// Package ui 描述与渲染框架无关的界面节点树，以及从会话状态推导界面列表的投影。
package ui

import "encoding/json"

type NodeType string

const (
	NodeSpinner       NodeType = "spinner"
	NodeUserMessage   NodeType = "user-message"
	NodeBotMessage    NodeType = "bot-message"
	NodeSystemMessage NodeType = "system-message"
	NodeBotCard       NodeType = "bot-card"
	NodeSkeleton      NodeType = "skeleton"
	NodeCard          NodeType = "card"
	NodeFragment      NodeType = "fragment"
)

// Node 是序列化给客户端的界面节点。Children 中的 nil 表示该位置不渲染任何内容。
type Node struct {
	Type     NodeType        `json:"type"`
	Variant  string          `json:"variant,omitempty"`
	Text     string          `json:"text,omitempty"`
	Props    json.RawMessage `json:"props,omitempty"`
	Children []*Node         `json:"children,omitempty"`
}

// Entry 是客户端界面列表中的一项，Display 可以为 nil。
type Entry struct {
	ID      string `json:"id"`
	Display *Node  `json:"display"`
}

func Spinner() *Node { return &Node{Type: NodeSpinner} }

func UserMessage(text string) *Node { return &Node{Type: NodeUserMessage, Text: text} }

func BotMessage(text string) *Node { return &Node{Type: NodeBotMessage, Text: text} }

func SystemMessage(text string) *Node { return &Node{Type: NodeSystemMessage, Text: text} }

func BotCard(children ...*Node) *Node { return &Node{Type: NodeBotCard, Children: children} }

func Skeleton(variant string) *Node { return &Node{Type: NodeSkeleton, Variant: variant} }

func Fragment(children ...*Node) *Node { return &Node{Type: NodeFragment, Children: children} }

// Card 渲染一个带原始 props 的卡片变体。
func Card(variant string, props json.RawMessage) *Node {
	return &Node{Type: NodeCard, Variant: variant, Props: props}
}

// Clone 深拷贝节点，流式文本节点在发送前需要快照。
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	if n.Props != nil {
		out.Props = append(json.RawMessage(nil), n.Props...)
	}
	if n.Children != nil {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return &out
}
