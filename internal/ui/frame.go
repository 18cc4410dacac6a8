package ui

type FrameType string

const (
	// FrameNode 用 Node 替换当前回合的显示内容。
	FrameNode      FrameType = "node"
	FrameTextOpen  FrameType = "text.open"
	FrameTextDelta FrameType = "text.delta"
	FrameTextDone  FrameType = "text.done"
)

// Frame 是一个回合中按发出顺序推送给客户端的增量更新。
type Frame struct {
	Type FrameType `json:"type"`
	Node *Node     `json:"node,omitempty"`
	Text string    `json:"text,omitempty"`
}

func NodeFrame(n *Node) Frame { return Frame{Type: FrameNode, Node: n} }
