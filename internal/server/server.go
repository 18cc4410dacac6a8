// Package server 通过 HTTP 暴露对话回合：回合以 SSE 帧流式返回，
// 聊天记录的读取与删除需要登录。
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"contract-agent/internal/auth"
	"contract-agent/internal/chat"
	"contract-agent/internal/execution"
	"contract-agent/internal/logger"
	"contract-agent/internal/state"
	"contract-agent/internal/ui"

	"github.com/labstack/echo/v5"
)

var log = logger.Named("server")

type Options struct {
	Engine *execution.Engine
	States *state.Store
	Chats  chat.Store
	Auth   *auth.Authenticator
	// Cards 为零值时使用内置的卡片映射。
	Cards ui.Cards
}

type Server struct {
	echo   *echo.Echo
	engine *execution.Engine
	states *state.Store
	chats  chat.Store
	auth   *auth.Authenticator
	cards  ui.Cards
}

func New(opts Options) *Server {
	s := &Server{
		echo:   echo.New(),
		engine: opts.Engine,
		states: opts.States,
		chats:  opts.Chats,
		auth:   opts.Auth,
		cards:  opts.Cards,
	}
	s.echo.Use(requestLogger)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.healthz)

	g := s.echo.Group("/api/chats")
	g.GET("", s.listChats)
	g.GET("/:id", s.getChat)
	g.DELETE("/:id", s.deleteChat)
	g.GET("/:id/ui", s.getUIState)
	g.POST("/:id/messages", s.submitMessage)
	g.POST("/:id/purchases", s.confirmPurchase)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run 监听 addr 直到 ctx 取消，然后在 5 秒内优雅关闭。
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthz(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := next(c)
		req := c.Request()
		entry := log.WithFields(logger.Fields{
			"method":  req.Method,
			"path":    req.URL.Path,
			"elapsed": time.Since(start).String(),
		})
		if err != nil {
			entry.WithError(err).Warn("request failed")
			return err
		}
		entry.Debug("request served")
		return nil
	}
}
