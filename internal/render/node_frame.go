package render

import "contract-agent/internal/ui"

// nodeRenderer 打印替换当前显示的节点；连续的 spinner 只打印一次。
type nodeRenderer struct{}

func (nodeRenderer) Type() ui.FrameType { return ui.FrameNode }

func (nodeRenderer) Handle(ctx *Context, f ui.Frame) {
	if f.Node == nil {
		return
	}
	if f.Node.Type == ui.NodeSpinner {
		if !ctx.lastSpinner {
			ctx.printf("%s", ctx.Styles.Node(f.Node))
			ctx.lastSpinner = true
		}
		return
	}
	if ctx.lastSpinner {
		ctx.printf("\r")
		ctx.lastSpinner = false
	}
	ctx.printf("%s\n", ctx.Styles.Node(f.Node))
}
