// Package dependency wires core contract-agent services using go.uber.org/dig.
package dependency

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/dig"

	"contract-agent/internal/agent"
	"contract-agent/internal/agent/anthropic"
	"contract-agent/internal/agent/openai"
	"contract-agent/internal/auth"
	"contract-agent/internal/catalog"
	"contract-agent/internal/chat"
	"contract-agent/internal/chat/filestore"
	"contract-agent/internal/chat/sqlstore"
	"contract-agent/internal/config"
	"contract-agent/internal/execution"
	"contract-agent/internal/logger"
	"contract-agent/internal/prompts"
	"contract-agent/internal/server"
	"contract-agent/internal/state"
	"contract-agent/internal/tools"
	"contract-agent/internal/ui"
)

// Container holds the resolved service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg     *config.Config
	client  agent.ModelClient
	catalog catalog.Source
	builder *tools.Builder
	engine  *execution.Engine
	states  *state.Store
	chats   chat.Store
	auth    *auth.Authenticator
	cards   ui.Cards
	server  *server.Server
}

func (c *Container) Config() *config.Config         { return c.cfg }
func (c *Container) ModelClient() agent.ModelClient { return c.client }
func (c *Container) Catalog() catalog.Source        { return c.catalog }
func (c *Container) ToolBuilder() *tools.Builder    { return c.builder }
func (c *Container) Engine() *execution.Engine      { return c.engine }
func (c *Container) States() *state.Store           { return c.states }
func (c *Container) Chats() chat.Store              { return c.chats }
func (c *Container) Auth() *auth.Authenticator      { return c.auth }
func (c *Container) Cards() ui.Cards                { return c.cards }
func (c *Container) Server() *server.Server         { return c.server }

// Close 释放聊天存储持有的连接。
func (c *Container) Close() error {
	if closer, ok := c.chats.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// New builds and wires all services from cfg.
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() context.Context { return ctx },
		newModelClient,
		newCatalog,
		newCards,
		newToolBuilder,
		newEngine,
		newChatStore,
		newStateStore,
		newAuthenticator,
		newServer,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		client agent.ModelClient,
		src catalog.Source,
		builder *tools.Builder,
		engine *execution.Engine,
		states *state.Store,
		chats chat.Store,
		authn *auth.Authenticator,
		cards ui.Cards,
		srv *server.Server,
	) {
		result = &Container{
			cfg:     cfg,
			client:  client,
			catalog: src,
			builder: builder,
			engine:  engine,
			states:  states,
			chats:   chats,
			auth:    authn,
			cards:   cards,
			server:  srv,
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// newModelClient 按 provider 选择客户端；缺少密钥时退回 EchoClient。
func newModelClient(cfg *config.Config) (agent.ModelClient, error) {
	m := cfg.Model
	provider := strings.ToLower(strings.TrimSpace(m.Provider))
	log := logger.Named("dependency")

	if provider == "echo" {
		return agent.EchoClient{Prefix: "echo: "}, nil
	}
	if strings.TrimSpace(m.APIKey) == "" {
		log.WithField("provider", provider).Warn("no API key configured, falling back to echo client")
		return agent.EchoClient{Prefix: "echo: "}, nil
	}
	switch provider {
	case "anthropic":
		return anthropic.New(anthropic.Options{Token: m.APIKey, BaseURL: m.BaseURL, Model: m.Name})
	case "", "openai":
		return openai.New(openai.Options{APIKey: m.APIKey, BaseURL: m.BaseURL, Model: m.Name})
	default:
		return nil, fmt.Errorf("unknown model provider %q", m.Provider)
	}
}

func newCatalog(cfg *config.Config) catalog.Source {
	return catalog.New(cfg.Catalog)
}

func newCards(cfg *config.Config) ui.Cards {
	return ui.NewCards(cfg.UI.Cards)
}

func newToolBuilder(cfg *config.Config, client agent.ModelClient, cards ui.Cards) (*tools.Builder, error) {
	viewSystem, err := prompts.Resolve(cfg.Tools.ViewSystem)
	if err != nil {
		return nil, fmt.Errorf("tools.view_system: %w", err)
	}
	viewPrompt, err := prompts.Resolve(cfg.Tools.ViewPrompt)
	if err != nil {
		return nil, fmt.Errorf("tools.view_prompt: %w", err)
	}
	return &tools.Builder{
		Model:      client,
		Cards:      cards,
		EntryDelay: time.Duration(cfg.Tools.EntryDelayMs) * time.Millisecond,
		ViewSystem: viewSystem,
		ViewPrompt: viewPrompt,
	}, nil
}

func newEngine(cfg *config.Config, client agent.ModelClient, src catalog.Source, builder *tools.Builder) (*execution.Engine, error) {
	system, err := prompts.Resolve(cfg.Model.System)
	if err != nil {
		return nil, fmt.Errorf("model.system: %w", err)
	}
	return execution.NewEngine(execution.Options{
		Client:          client,
		Catalog:         src,
		Tools:           builder,
		Model:           cfg.Model.Name,
		System:          system,
		CatalogRequired: cfg.Catalog.Required,
		PurchaseDelay:   builder.EntryDelay,
	}), nil
}

func newChatStore(ctx context.Context, cfg *config.Config) (chat.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	switch driver {
	case "", "file":
		return filestore.New(cfg.Store.Dir), nil
	default:
		if strings.TrimSpace(cfg.Store.DSN) == "" {
			return nil, fmt.Errorf("store driver %q requires a dsn", driver)
		}
		return sqlstore.Open(ctx, driver, cfg.Store.DSN)
	}
}

func newStateStore(chats chat.Store) *state.Store {
	return state.NewStore(chat.Loader(chats))
}

func newAuthenticator(cfg *config.Config) *auth.Authenticator {
	a := auth.New(cfg.Server.JWTSecret)
	if !a.Enabled() {
		logger.Named("dependency").Warn("AUTH_SECRET not set, every request is anonymous and chats are not saved")
	}
	return a
}

func newServer(engine *execution.Engine, states *state.Store, chats chat.Store, authn *auth.Authenticator, cards ui.Cards) *server.Server {
	return server.New(server.Options{
		Engine: engine,
		States: states,
		Chats:  chats,
		Auth:   authn,
		Cards:  cards,
	})
}
