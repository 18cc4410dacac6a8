package dependency

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/chat/filestore"
	"contract-agent/internal/chat/sqlstore"
	"contract-agent/internal/config"
	"contract-agent/internal/logger"
	"contract-agent/internal/ui"

	"github.com/stretchr/testify/require"
)

func quietLogs(t *testing.T) {
	t.Helper()
	root := logger.Root()
	prev := root.Out
	root.SetOutput(io.Discard)
	t.Cleanup(func() { root.SetOutput(prev) })
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "tools.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`[{"name":"addRFP","_id":"1","tool":{"type":"entry","params":{}}}]`), 0o644))

	cfg := config.Default()
	cfg.Model.Provider = "echo"
	cfg.Catalog.URL = catalogPath
	cfg.Store.Dir = filepath.Join(dir, "chats")
	cfg.Tools.EntryDelayMs = 0
	return &cfg
}

func TestNew_WiresFileStoreAndEchoClient(t *testing.T) {
	quietLogs(t)
	c, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	require.IsType(t, agent.EchoClient{}, c.ModelClient())
	require.IsType(t, &filestore.Store{}, c.Chats())
	require.NotNil(t, c.Engine())
	require.False(t, c.Auth().Enabled())

	entries, err := c.Catalog().Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	rec := httptest.NewRecorder()
	c.Server().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNew_SQLiteStore(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	cfg.Store.Driver = "sqlite"
	cfg.Store.DSN = filepath.Join(t.TempDir(), "chats.db")
	cfg.Server.JWTSecret = "secret"

	c, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.IsType(t, &sqlstore.Store{}, c.Chats())
	require.True(t, c.Auth().Enabled())
}

func TestNew_Errors(t *testing.T) {
	quietLogs(t)
	cfg := testConfig(t)
	cfg.Store.Driver = "postgres"
	cfg.Store.DSN = ""
	_, err := New(context.Background(), cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.Model.Provider = "cohere"
	cfg.Model.APIKey = "k"
	_, err = New(context.Background(), cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.Model.System = "@internal/prompts/nope"
	_, err = New(context.Background(), cfg)
	require.ErrorContains(t, err, "model.system")
}

func TestNewToolBuilder_ResolvesBuiltinPrompts(t *testing.T) {
	cfg := config.Default()
	builder, err := newToolBuilder(&cfg, agent.EchoClient{}, ui.NewCards(nil))
	require.NoError(t, err)
	require.Equal(t, "Return the result of this query.", builder.ViewPrompt)
	require.Contains(t, builder.ViewSystem, "smart-contract query assistant")
	require.Equal(t, time.Second, builder.EntryDelay)
}

func TestNewModelClient_MissingKeyFallsBackToEcho(t *testing.T) {
	quietLogs(t)
	cfg := config.Default()
	client, err := newModelClient(&cfg)
	require.NoError(t, err)
	require.IsType(t, agent.EchoClient{}, client)
}
