package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"contract-agent/internal/auth"
	"contract-agent/internal/chat"
	"contract-agent/internal/execution"
	"contract-agent/internal/logger"
	"contract-agent/internal/state"
	"contract-agent/internal/ui"

	"github.com/labstack/echo/v5"
)

type messageRequest struct {
	Content string `json:"content"`
}

type purchaseRequest struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Amount int     `json:"amount"`
}

type errorEvent struct {
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// sseWriter 每写一个事件就 flush，帧按产生顺序到达客户端。
type sseWriter struct {
	rw http.ResponseWriter
}

func startSSE(c *echo.Context) *sseWriter {
	rw := c.Response()
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.WriteHeader(http.StatusOK)
	return &sseWriter{rw: rw}
}

func (w *sseWriter) emit(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).WithField("event", event).Error("encode sse payload")
		return
	}
	fmt.Fprintf(w.rw, "event: %s\ndata: %s\n\n", event, data)
	if f, ok := w.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sseWriter) frame(f ui.Frame) {
	w.emit("frame", f)
}

func (w *sseWriter) fail(err error) {
	w.emit("error", errorEvent{Stage: execution.Stage(err), Message: err.Error()})
}

func (s *Server) commitHook(u *auth.User) state.CommitFunc {
	if u == nil || s.chats == nil {
		return nil
	}
	return chat.CommitHook(s.chats, u.ID)
}

// beginTurn 做完所有可以返回 HTTP 错误的检查，之后才切换到 SSE。
func (s *Server) beginTurn(c *echo.Context) (*state.Turn, string, error) {
	id, err := chatID(c)
	if err != nil {
		return nil, "", err
	}
	ctx := c.Request().Context()
	u := s.user(c)
	if err := s.checkAccess(ctx, id, u); err != nil {
		return nil, "", err
	}
	sess, err := s.states.Open(ctx, id)
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return sess.BeginTurn(ctx, s.commitHook(u)), id, nil
}

func (s *Server) submitMessage(c *echo.Context) error {
	var req messageRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "content required")
	}
	turn, id, err := s.beginTurn(c)
	if err != nil {
		return err
	}

	w := startSSE(c)
	entry, err := s.engine.SubmitUserMessage(c.Request().Context(), turn, req.Content, w.frame)
	if err != nil {
		log.WithError(err).WithField("chat_id", id).Warn("turn failed")
		w.fail(err)
		return nil
	}
	w.emit("done", entry)
	return nil
}

func (s *Server) confirmPurchase(c *echo.Context) error {
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid purchase request")
	}
	if strings.TrimSpace(req.Symbol) == "" || req.Amount <= 0 || req.Price < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "symbol, amount and price required")
	}
	turn, id, err := s.beginTurn(c)
	if err != nil {
		return err
	}

	w := startSSE(c)
	res, err := s.engine.ConfirmPurchase(c.Request().Context(), turn, req.Symbol, req.Price, req.Amount, w.frame)
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"chat_id": id, "symbol": req.Symbol}).Warn("purchase failed")
		w.fail(err)
		return nil
	}
	w.emit("done", res)
	return nil
}
