package render

import "contract-agent/internal/ui"

type textOpenRenderer struct{}

func (textOpenRenderer) Type() ui.FrameType { return ui.FrameTextOpen }

func (textOpenRenderer) Handle(ctx *Context, _ ui.Frame) {
	if ctx.lastSpinner {
		ctx.printf("\r")
		ctx.lastSpinner = false
	}
	ctx.Streaming = true
}

type textDeltaRenderer struct{}

func (textDeltaRenderer) Type() ui.FrameType { return ui.FrameTextDelta }

func (textDeltaRenderer) Handle(ctx *Context, f ui.Frame) {
	if !ctx.Streaming {
		return
	}
	ctx.printf("%s", ctx.Styles.Bot.Render(f.Text))
}

// textDoneRenderer 结束当前文本行。
type textDoneRenderer struct{}

func (textDoneRenderer) Type() ui.FrameType { return ui.FrameTextDone }

func (textDoneRenderer) Handle(ctx *Context, _ ui.Frame) {
	if !ctx.Streaming {
		return
	}
	ctx.Streaming = false
	ctx.printf("\n")
}
