// Package render 在终端中绘制界面帧，供 CLI 的 ask 命令使用。
package render

import (
	"fmt"
	"io"

	"contract-agent/internal/ui"
)

// Context holds shared state for all frame renderers.
// Text renderers mutate it to implement incremental output.
type Context struct {
	Out    io.Writer
	Styles Styles
	// Streaming 为 true 表示文本句柄已打开，增量直接写在当前行。
	Streaming bool
	// lastSpinner 避免重复打印 spinner。
	lastSpinner bool
}

func (c *Context) printf(format string, args ...any) {
	if c == nil || c.Out == nil {
		return
	}
	fmt.Fprintf(c.Out, format, args...)
}

// FrameRenderer renders a single frame type.
type FrameRenderer interface {
	Type() ui.FrameType
	Handle(ctx *Context, f ui.Frame)
}

// Terminal 按帧类型分派到对应的 renderer。
type Terminal struct {
	ctx       *Context
	renderers map[ui.FrameType]FrameRenderer
}

func NewTerminal(out io.Writer) *Terminal {
	t := &Terminal{
		ctx:       &Context{Out: out, Styles: DefaultStyles()},
		renderers: make(map[ui.FrameType]FrameRenderer),
	}
	for _, r := range []FrameRenderer{
		nodeRenderer{},
		textOpenRenderer{},
		textDeltaRenderer{},
		textDoneRenderer{},
	} {
		t.renderers[r.Type()] = r
	}
	return t
}

// Frame 可以直接作为 SubmitUserMessage 的 render 回调。
func (t *Terminal) Frame(f ui.Frame) {
	r, ok := t.renderers[f.Type]
	if !ok {
		return
	}
	r.Handle(t.ctx, f)
}

// Entries 打印投影后的历史界面。
func (t *Terminal) Entries(entries []ui.Entry) {
	for _, e := range entries {
		if e.Display == nil {
			continue
		}
		t.ctx.printf("%s\n", t.ctx.Styles.Node(e.Display))
	}
}
