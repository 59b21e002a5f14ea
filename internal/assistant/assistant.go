// Package assistant assembles the catalog session, the tools and the chat
// driver from a loaded configuration. The CLI and the chat server share it.
package assistant

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/curatai/curatai/internal/agent"
	"github.com/curatai/curatai/internal/catalog/auth"
	"github.com/curatai/curatai/internal/catalog/tools"
	"github.com/curatai/curatai/internal/common/httpclient"
	"github.com/curatai/curatai/internal/config"
	"github.com/curatai/curatai/internal/metrics"
	"github.com/curatai/curatai/internal/toolregistry"
)

// Assistant is everything a chat front end needs.
type Assistant struct {
	Config   *config.Config
	Metrics  *metrics.Metrics
	Session  *auth.Session
	Deps     *tools.Deps
	Registry *toolregistry.Registry
	Driver   *agent.Driver
}

type options struct {
	provider agent.Provider
	observer agent.Observer
	metrics  *metrics.Metrics
}

type Option func(*options)

// WithProvider replaces the provider selected by the configuration.
func WithProvider(p agent.Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

func WithObserver(obs agent.Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New authenticates against the catalog and wires the tool registry and
// driver. An authentication failure is returned as is; callers treat it
// as fatal.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Assistant, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	session, err := Connect(ctx, cfg, metrics.OrNoop(o.metrics))
	if err != nil {
		return nil, err
	}
	a, err := Assemble(cfg, session, o.provider, opts...)
	if err != nil {
		return nil, err
	}
	a.Session = session
	return a, nil
}

// Connect opens an authenticated catalog session.
func Connect(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*auth.Session, error) {
	authn, err := auth.NewAuthenticator(auth.Credentials{
		BaseURL:   cfg.Catalog.BaseURL,
		Username:  cfg.Catalog.Username,
		Password:  cfg.Catalog.Password,
		TokenName: cfg.Catalog.TokenName,
	},
		auth.WithMetrics(m),
		auth.WithClientOptions(httpclient.WithTimeout(cfg.Catalog.GetRequestTimeout())),
	)
	if err != nil {
		return nil, err
	}
	session, err := authn.Authenticate(ctx)
	if err != nil {
		return nil, err
	}
	log.Ctx(ctx).Info().Str("catalog", cfg.Catalog.BaseURL).Msg("catalog session established")
	return session, nil
}

// Tools builds the catalog tools around catalog and registers them.
func Tools(cfg *config.Config, catalog httpclient.Requester, m *metrics.Metrics) (*tools.Deps, *toolregistry.Registry, error) {
	deps := tools.NewDeps(catalog,
		tools.WithPollInterval(cfg.Propagation.GetPollInterval()),
		tools.WithMaxPolls(cfg.Propagation.MaxPolls),
		tools.WithSubmitTimeout(cfg.Propagation.GetSubmitTimeout()),
		tools.WithMetrics(m),
	)
	reg := toolregistry.New(toolregistry.WithMetrics(m))
	if err := tools.Register(reg, deps); err != nil {
		return nil, nil, fmt.Errorf("registering tools: %w", err)
	}
	return deps, reg, nil
}

// Assemble wires the tools and driver around an existing catalog requester.
// A nil provider is built from the configuration.
func Assemble(cfg *config.Config, catalog httpclient.Requester, provider agent.Provider, opts ...Option) (*Assistant, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	m := metrics.OrNoop(o.metrics)

	deps, reg, err := Tools(cfg, catalog, m)
	if err != nil {
		return nil, err
	}

	if provider == nil {
		provider, err = NewProvider(&cfg.Agent)
		if err != nil {
			return nil, err
		}
	}
	system, err := agent.LoadSystemPrompt(cfg.Agent.SystemPromptFile)
	if err != nil {
		return nil, err
	}

	return &Assistant{
		Config:   cfg,
		Metrics:  m,
		Deps:     deps,
		Registry: reg,
		Driver: &agent.Driver{
			Provider:      provider,
			Registry:      reg,
			System:        system,
			MaxTokens:     cfg.Agent.MaxTokens,
			MaxToolRounds: cfg.Agent.MaxToolRounds,
			Observer:      o.observer,
		},
	}, nil
}

// NewProvider builds the model client named by the agent configuration.
func NewProvider(cfg *config.AgentConfig) (agent.Provider, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}
	switch cfg.Provider {
	case "anthropic", "":
		return agent.NewAnthropicProvider(key, cfg.Model), nil
	case "openai":
		return agent.NewOpenAIProvider(key, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
