package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"contract-agent/internal/auth"
	"contract-agent/internal/chat"

	"github.com/labstack/echo/v5"
)

func (s *Server) user(c *echo.Context) *auth.User {
	return s.auth.FromRequest(c.Request())
}

func (s *Server) requireAuth(c *echo.Context) (*auth.User, error) {
	u := s.user(c)
	if u == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u, nil
}

func chatID(c *echo.Context) (string, error) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "chat id required")
	}
	return id, nil
}

// ownedChat 读取持久化记录并校验归属；其他用户的记录按不存在处理。
func (s *Server) ownedChat(ctx context.Context, id string, u *auth.User) (*chat.Chat, error) {
	if s.chats == nil {
		return nil, chat.ErrNotFound
	}
	c, err := s.chats.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil || c.UserID != u.ID {
		return nil, chat.ErrNotFound
	}
	return c, nil
}

// checkAccess 拒绝访问他人已保存的聊天，尚未保存的 chat id 总是允许。
func (s *Server) checkAccess(ctx context.Context, id string, u *auth.User) error {
	if s.chats == nil {
		return nil
	}
	rec, err := s.chats.Get(ctx, id)
	if errors.Is(err, chat.ErrNotFound) {
		return nil
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if u == nil || rec.UserID != u.ID {
		return echo.NewHTTPError(http.StatusNotFound, "chat not found")
	}
	return nil
}

func (s *Server) listChats(c *echo.Context) error {
	u, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	if s.chats == nil {
		return c.JSON(http.StatusOK, []*chat.Chat{})
	}
	list, err := s.chats.List(c.Request().Context(), u.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if list == nil {
		list = []*chat.Chat{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getChat(c *echo.Context) error {
	u, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	id, err := chatID(c)
	if err != nil {
		return err
	}
	rec, err := s.ownedChat(c.Request().Context(), id, u)
	if errors.Is(err, chat.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "chat not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteChat(c *echo.Context) error {
	u, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	id, err := chatID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := s.ownedChat(ctx, id, u); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "chat not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := s.chats.Delete(ctx, id); err != nil && !errors.Is(err, chat.ErrNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	s.states.Drop(id)
	return c.NoContent(http.StatusNoContent)
}

// getUIState 未登录时返回 null。
func (s *Server) getUIState(c *echo.Context) error {
	u := s.user(c)
	if u == nil {
		return c.JSON(http.StatusOK, nil)
	}
	id, err := chatID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.checkAccess(ctx, id, u); err != nil {
		return err
	}
	sess, err := s.states.Open(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	snap := sess.Snapshot()
	return c.JSON(http.StatusOK, s.cards.Project(snap.ChatID, snap.Messages))
}
