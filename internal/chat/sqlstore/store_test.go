package sqlstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/chat"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	st, err := Open(s.ctx, "sqlite", filepath.Join(s.T().TempDir(), "chats.db"))
	s.Require().NoError(err)
	s.store = st
	s.T().Cleanup(func() { st.Close() })
}

func (s *StoreSuite) chat(id, user string, created time.Time) *chat.Chat {
	return &chat.Chat{
		ID:        id,
		Title:     "t-" + id,
		UserID:    user,
		CreatedAt: created,
		Path:      chat.PathFor(id),
		Messages: []agent.Message{
			{ID: "m1", Role: agent.RoleUser, Content: "add an rfp"},
			agent.ToolCallMessage("call-1", "addRFP", json.RawMessage(`{"title":"x"}`)),
			agent.ToolResultMessage("call-1", "addRFP", json.RawMessage(`{"title":"x"}`)),
		},
	}
}

func (s *StoreSuite) TestSaveAndGetRoundTripsStructuredMessages() {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Save(s.ctx, s.chat("a", "u1", created)))

	got, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("t-a", got.Title)
	s.Equal("/chat/a", got.Path)
	s.True(got.CreatedAt.Equal(created))
	s.Require().Len(got.Messages, 3)
	s.Equal(agent.PartToolCall, got.Messages[1].Parts[0].Type)
	s.Equal("call-1", got.Messages[2].Parts[0].ToolCallID)
}

func (s *StoreSuite) TestUpsertKeepsCreatedAt() {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Save(s.ctx, s.chat("a", "u1", created)))

	next := s.chat("a", "u1", created.Add(time.Hour))
	next.Title = "renamed"
	s.Require().NoError(s.store.Save(s.ctx, next))

	got, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("renamed", got.Title)
	s.True(got.CreatedAt.Equal(created))
}

func (s *StoreSuite) TestListFiltersByUserNewestFirst() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.Save(s.ctx, s.chat("a", "u1", base)))
	s.Require().NoError(s.store.Save(s.ctx, s.chat("b", "u1", base.Add(time.Minute))))
	s.Require().NoError(s.store.Save(s.ctx, s.chat("c", "u2", base)))

	list, err := s.store.List(s.ctx, "u1")
	s.Require().NoError(err)
	s.Require().Len(list, 2)
	s.Equal("b", list[0].ID)
	s.Equal("a", list[1].ID)
}

func (s *StoreSuite) TestDelete() {
	s.Require().NoError(s.store.Save(s.ctx, s.chat("a", "u1", time.Now())))
	s.Require().NoError(s.store.Delete(s.ctx, "a"))
	_, err := s.store.Get(s.ctx, "a")
	s.ErrorIs(err, chat.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, "a"), chat.ErrNotFound)
}

func TestRebindAndDialects(t *testing.T) {
	require.Equal(t, "a = $1 AND b = $2", postgresDialect.rebind("a = ? AND b = ?"))
	require.Equal(t, "a = ?", mysqlDialect.rebind("a = ?"))

	_, err := lookupDialect("oracle")
	require.Error(t, err)
	d, err := lookupDialect("PostgreSQL")
	require.NoError(t, err)
	require.Equal(t, "postgres", d.driver)
}
