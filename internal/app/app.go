// Package app assembles the quiz engine from configuration: the store,
// question sources, cache, event publisher, and session service.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/abhisek/quizforge/internal/cache"
	"github.com/abhisek/quizforge/internal/config"
	"github.com/abhisek/quizforge/internal/events"
	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/questiongen"
	"github.com/abhisek/quizforge/internal/selection"
	"github.com/abhisek/quizforge/internal/session"
	"github.com/abhisek/quizforge/internal/store"
)

// BuiltinSource tags bank rows loaded from the embedded question set.
const BuiltinSource = "builtin"

// App owns every long-lived dependency of a running process.
type App struct {
	Config  *config.Config
	Store   *store.Store
	Service *session.Service
	Log     *slog.Logger

	// LLM is nil when no provider is configured.
	LLM llm.Provider

	cache     cache.SessionCache
	publisher events.Publisher
}

// New opens the store and wires the session service. Redis, RabbitMQ and
// the LLM are optional and are skipped when unconfigured.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	st, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Store: st, Log: log}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// OpenStore opens the configured database. An empty SQLite DSN resolves to
// the default data-directory path.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (*store.Store, error) {
	dsn := cfg.DSN
	if dsn == "" && cfg.Driver == store.DriverSQLite {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		dsn = p
	}
	return store.Open(ctx, cfg.Driver, dsn)
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config

	rules, err := cfg.Engine.Rules()
	if err != nil {
		return fmt.Errorf("engine rules: %w", err)
	}

	c, err := cache.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	a.cache = c
	if cfg.Redis.Addr == "" {
		a.Log.Info("redis address is empty, session cache is disabled")
	}

	pub, err := events.NewEventPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, a.Log)
	if err != nil {
		return err
	}
	a.publisher = pub

	selector := selection.NewRandom()
	if cfg.Questions.Seed != 0 {
		selector = selection.NewSeeded(cfg.Questions.Seed)
	}

	sources := map[string]questiongen.Source{
		questiongen.SourceBank:     questiongen.NewBankSource(a.Store, selector),
		questiongen.SourceFallback: questiongen.TemplateSource{},
	}
	defaultSource := cfg.Questions.Source

	if llmCfg, ok := cfg.LLM.Resolved(); ok {
		provider, err := llm.New(ctx, llmCfg, a.Store, a.Log)
		if err != nil {
			return err
		}
		a.LLM = provider
		genCfg := questiongen.DefaultConfig()
		if cfg.Questions.MaxGenerate > 0 {
			genCfg.MaxCount = cfg.Questions.MaxGenerate
		}
		sources[questiongen.SourceLLM] = questiongen.WithFallback(
			questiongen.NewLLMSource(provider, genCfg), questiongen.TemplateSource{}, a.Log)
		a.Log.Info("llm provider ready", "provider", llmCfg.Provider, "model", provider.ModelID())
	} else if defaultSource == questiongen.SourceLLM {
		a.Log.Warn("no llm provider configured, using templated questions")
		defaultSource = questiongen.SourceFallback
	} else {
		a.Log.Info("no llm provider configured, llm source is disabled")
	}

	a.Service = session.NewService(a.Store, session.Options{
		Sources:       sources,
		DefaultSource: defaultSource,
		Cache:         a.cache,
		Publisher:     a.publisher,
		Rules:         rules,
		Selector:      selector,
		Logger:        a.Log,
	})
	return nil
}

// SeedBank loads the embedded question set into the store. It does nothing
// when the bank already has questions unless force is set, and returns the
// number of questions written.
func (a *App) SeedBank(ctx context.Context, force bool) (int, error) {
	if !force {
		cats, err := a.Store.Categories(ctx)
		if err != nil {
			return 0, err
		}
		if len(cats) > 0 {
			return 0, nil
		}
	}
	bank, err := questiongen.BuiltinBank()
	if err != nil {
		return 0, err
	}
	if err := a.Store.UpsertQuestions(ctx, BuiltinSource, bank); err != nil {
		return 0, err
	}
	a.Log.Info("question bank seeded", "questions", len(bank))
	return len(bank), nil
}

// Close releases every connection. It is safe on a partially built App.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger from cfg.
func NewLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
