package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/catalog"
	"contract-agent/internal/logger"
	"contract-agent/internal/state"
	"contract-agent/internal/tools"
	"contract-agent/internal/ui"
)

var ErrUnknownTool = errors.New("unknown tool")

// Options 定义引擎的可注入依赖。
type Options struct {
	Client          agent.ModelClient
	Catalog         catalog.Source
	Tools           *tools.Builder
	Model           string
	System          string
	CatalogRequired bool
	RequestTimeout  time.Duration
	PurchaseDelay   time.Duration
}

// Engine 处理单个用户回合：暂存消息、拉取目录、构建工具表、流式调用模型。
type Engine struct {
	client          agent.ModelClient
	catalog         catalog.Source
	builder         *tools.Builder
	model           string
	system          string
	catalogRequired bool
	requestTimeout  time.Duration
	purchaseDelay   time.Duration
}

// NewEngine 构造一个新的执行引擎。
func NewEngine(opts Options) *Engine {
	builder := opts.Tools
	if builder == nil {
		builder = &tools.Builder{Model: opts.Client, Cards: ui.DefaultCards()}
	}
	reqTimeout := opts.RequestTimeout
	if reqTimeout == 0 {
		reqTimeout = 2 * time.Minute
	}
	return &Engine{
		client:          opts.Client,
		catalog:         opts.Catalog,
		builder:         builder,
		model:           opts.Model,
		system:          opts.System,
		catalogRequired: opts.CatalogRequired,
		requestTimeout:  reqTimeout,
		purchaseDelay:   opts.PurchaseDelay,
	}
}

// SubmitUserMessage 执行一个回合。render 按发出顺序同步接收界面帧；
// 返回值是该回合在客户端界面列表中的新条目。
func (e *Engine) SubmitUserMessage(ctx context.Context, turn *state.Turn, content string, render func(ui.Frame)) (ui.Entry, error) {
	if e.client == nil {
		return ui.Entry{}, errors.New("model client not configured")
	}
	if render == nil {
		render = func(ui.Frame) {}
	}
	chatID := turn.Get().ChatID
	fields := logger.Fields{"chat_id": chatID}

	if err := turn.Update(turn.Get().Append(agent.Message{
		ID:      agent.NewID(),
		Role:    agent.RoleUser,
		Content: content,
	})); err != nil {
		return ui.Entry{}, stageError{Stage: "stage", Err: err}
	}
	render(ui.NodeFrame(ui.Spinner()))

	entries, err := e.fetchCatalog(ctx)
	if err != nil {
		if e.catalogRequired {
			log.WithError(err).WithFields(fields).Error("catalog fetch failed")
			return ui.Entry{}, stageError{Stage: "catalog", Err: err}
		}
		log.WithError(err).WithFields(fields).Warn("catalog unavailable, continuing without tools")
	}
	registry := e.builder.Build(entries, turn)

	prompt := agent.Prompt{
		Model:    e.model,
		System:   e.system,
		Messages: turn.Get().Messages,
		Tools:    registry.Specs(),
	}
	out, err := e.stream(ctx, prompt, render)
	if err != nil {
		log.WithError(err).WithFields(fields).Error("model stream failed")
		return ui.Entry{}, stageError{Stage: "model", Err: err}
	}

	if out.call == nil {
		return e.finishText(turn, out, render)
	}
	return e.runTool(ctx, turn, registry, out, render)
}

func (e *Engine) fetchCatalog(ctx context.Context) ([]catalog.Entry, error) {
	if e.catalog == nil {
		return nil, nil
	}
	return e.catalog.Fetch(ctx)
}

type streamOutput struct {
	text   string
	opened bool
	call   *agent.ToolCall
	extra  int
}

// stream 调用模型并把文本增量转换为帧；只保留第一次工具选择。
func (e *Engine) stream(ctx context.Context, prompt agent.Prompt, render func(ui.Frame)) (streamOutput, error) {
	llm := logger.LLM()
	model := prompt.Model
	llm.Request(model, agent.ToLLMMessages(prompt), len(prompt.Tools))

	ctxRun, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()

	var (
		out    streamOutput
		sb     strings.Builder
		chunks int
	)
	err := e.client.Stream(ctxRun, prompt, func(evt agent.StreamEvent) {
		switch evt.Type {
		case agent.StreamEventTextDelta:
			if evt.Text == "" {
				return
			}
			llm.StreamChunk(model, evt.Text, chunks)
			chunks++
			if !out.opened {
				out.opened = true
				render(ui.Frame{Type: ui.FrameTextOpen, Node: ui.BotMessage("")})
			}
			sb.WriteString(evt.Text)
			render(ui.Frame{Type: ui.FrameTextDelta, Text: evt.Text})
		case agent.StreamEventToolCall:
			if evt.ToolCall == nil {
				return
			}
			if out.call != nil {
				out.extra++
				return
			}
			out.call = evt.ToolCall
		}
	})
	if err != nil {
		llm.Error(model, err)
		return out, err
	}
	llm.StreamComplete(model, chunks)
	out.text = sb.String()
	if out.extra > 0 {
		log.WithField("dropped", out.extra).Warn("model selected more than one tool, only the first is executed")
	}
	return out, nil
}

// finishText 封闭文本句柄，并把完整文本作为一条 assistant 消息提交。
// 模型没有输出任何增量时也先打开句柄，保证 text.done 总有对应的 text.open。
func (e *Engine) finishText(turn *state.Turn, out streamOutput, render func(ui.Frame)) (ui.Entry, error) {
	text := out.text
	logger.LLM().Response(e.model, text)
	if !out.opened {
		render(ui.Frame{Type: ui.FrameTextOpen, Node: ui.BotMessage("")})
	}
	render(ui.Frame{Type: ui.FrameTextDone, Text: text})

	next := turn.Get().Append(agent.Message{
		ID:      agent.NewID(),
		Role:    agent.RoleAssistant,
		Content: text,
	})
	if err := turn.Done(next); err != nil {
		return ui.Entry{}, stageError{Stage: "commit", Err: err}
	}
	return ui.Entry{ID: agent.NewID(), Display: ui.BotMessage(text)}, nil
}

func (e *Engine) runTool(ctx context.Context, turn *state.Turn, registry *tools.Registry, out streamOutput, render func(ui.Frame)) (ui.Entry, error) {
	call := out.call
	fields := logger.Fields{"tool": call.Name, "call_id": call.ID}

	d, ok := registry.Lookup(call.Name)
	if !ok {
		return ui.Entry{}, stageError{Stage: "tool", Err: fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)}
	}
	if err := d.Schema.ValidateJSON(call.Arguments); err != nil {
		log.WithError(err).WithFields(fields).Warn("tool arguments do not match schema")
	}

	if out.opened {
		// 工具调用前的文本只暂存，由生成器的提交一并写入。
		render(ui.Frame{Type: ui.FrameTextDone, Text: out.text})
		if err := turn.Update(turn.Get().Append(agent.Message{
			ID:      agent.NewID(),
			Role:    agent.RoleAssistant,
			Content: out.text,
		})); err != nil {
			return ui.Entry{}, stageError{Stage: "stage", Err: err}
		}
	}

	log.WithFields(fields).Info("running tool generator")
	final, err := d.Generate(ctx, call.Arguments, func(n *ui.Node) {
		render(ui.NodeFrame(n))
	})
	if err != nil {
		log.WithError(err).WithFields(fields).Error("tool generator failed")
		return ui.Entry{}, stageError{Stage: "tool", Err: err}
	}
	render(ui.NodeFrame(final))
	return ui.Entry{ID: agent.NewID(), Display: final}, nil
}
