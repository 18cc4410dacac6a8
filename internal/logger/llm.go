package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// LLMMessage 表示一次请求中的对话消息（仅用于日志）。
type LLMMessage struct {
	Role    string
	Content string
}

// LLMLogger 负责输出与补全 API 交互的请求、分片、响应与错误信息。
type LLMLogger interface {
	Request(model string, messages []LLMMessage, tools int)
	StreamChunk(model string, chunk string, index int)
	StreamComplete(model string, chunks int)
	Response(model string, content string)
	Error(model string, err error)
}

var llmLog LLMLogger = NewLLMLogger(nil)

// LLM 返回全局 LLM 日志实例。
func LLM() LLMLogger {
	return llmLog
}

// SetLLM 覆盖全局 LLM 日志实例，传入 nil 将重置为默认实现。
func SetLLM(l LLMLogger) {
	if l == nil {
		l = NewLLMLogger(nil)
	}
	llmLog = l
}

// StdLLMLogger 使用 logrus 输出，debug 级别才记录消息正文与流式分片。
type StdLLMLogger struct {
	entry *logrus.Entry
}

// NewLLMLogger 构造默认的 LLM 日志记录器，l 为 nil 时使用全局 logger。
func NewLLMLogger(l *Logger) *StdLLMLogger {
	if l == nil {
		l = root()
	}
	return &StdLLMLogger{entry: logrus.NewEntry(l).WithField("component", "llm")}
}

func (l *StdLLMLogger) Request(model string, messages []LLMMessage, tools int) {
	l.entry.WithFields(logrus.Fields{"model": model, "messages": len(messages), "tools": tools}).Info("-> request")
	if !l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		return
	}
	for i, msg := range messages {
		l.entry.Debugf("-> message[%d] role=%s content=%s", i, msg.Role, sanitize(msg.Content))
	}
}

func (l *StdLLMLogger) StreamChunk(model string, chunk string, index int) {
	l.entry.Debugf("<- chunk model=%s seq=%d text=%s", model, index, sanitize(chunk))
}

func (l *StdLLMLogger) StreamComplete(model string, chunks int) {
	l.entry.WithFields(logrus.Fields{"model": model, "chunks": chunks}).Info("<- stream completed")
}

func (l *StdLLMLogger) Response(model string, content string) {
	l.entry.WithField("model", model).Infof("<- response text=%s", sanitize(content))
}

func (l *StdLLMLogger) Error(model string, err error) {
	l.entry.WithField("model", model).Errorf("!! error: %v", err)
}

// NoopLLMLogger 忽略所有日志输出，测试中使用。
type NoopLLMLogger struct{}

func (NoopLLMLogger) Request(string, []LLMMessage, int) {}
func (NoopLLMLogger) StreamChunk(string, string, int)   {}
func (NoopLLMLogger) StreamComplete(string, int)        {}
func (NoopLLMLogger) Response(string, string)           {}
func (NoopLLMLogger) Error(string, error)               {}

func sanitize(text string) string {
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", `\r`)
	return text
}
