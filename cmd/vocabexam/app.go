package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-vocab/internal/ai"
	"github.com/p-n-ai/pai-vocab/internal/archive"
	"github.com/p-n-ai/pai-vocab/internal/chat"
	"github.com/p-n-ai/pai-vocab/internal/delivery"
	"github.com/p-n-ai/pai-vocab/internal/exam"
	"github.com/p-n-ai/pai-vocab/internal/history"
	"github.com/p-n-ai/pai-vocab/internal/pipeline"
	"github.com/p-n-ai/pai-vocab/internal/platform/cache"
	"github.com/p-n-ai/pai-vocab/internal/platform/config"
	"github.com/p-n-ai/pai-vocab/internal/platform/database"
	"github.com/p-n-ai/pai-vocab/internal/synonym"
	"github.com/p-n-ai/pai-vocab/internal/vocab"
)

// app is the wired set of collaborators for one process.
type app struct {
	cfg     *config.Config
	db      *database.DB
	cache   *cache.Cache
	gateway *chat.Gateway
	source  vocab.Source
	runner  *pipeline.Runner
}

// buildOptions selects which parts of the stack a command needs.
type buildOptions struct {
	delivery bool
	seed     string
}

func build(ctx context.Context, cfg *config.Config, opts buildOptions) (*app, error) {
	a := &app{cfg: cfg, gateway: chat.NewGateway()}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		switch {
		case err == nil:
			a.db = db
		case cfg.SourceKind() == "postgres":
			return nil, fmt.Errorf("connecting to database: %w", err)
		default:
			slog.Warn("database unavailable, run history disabled", "operation", "database.connect", "error", err)
		}
	}

	if cfg.SourceKind() == "postgres" {
		a.source = vocab.NewPostgresSource(a.db.Pool, cfg.Source.Path)
	} else {
		a.source = vocab.Open(cfg.Source.Path, cfg.Source.Kind, cfg.Source.Sheet)
	}

	synonyms, err := synonym.LoadFile(cfg.Exam.SynonymsPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("loading synonyms: %w", err)
	}

	deps := pipeline.Deps{Source: a.source, Synonyms: synonyms}

	if opts.delivery {
		ch, err := newChannel(cfg.Destination)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.gateway.Register(cfg.Destination.Kind, ch)
		deps.Deliverer = delivery.New(a.gateway, cfg.Destination.Kind, cfg.Destination.Channel, delivery.Options{
			Delay:      cfg.Delivery.Delay,
			Attempts:   cfg.Delivery.Attempts,
			RetryDelay: cfg.Delivery.RetryDelay,
		})

		if cfg.Archive.Bucket != "" {
			archiver, err := archive.NewS3(ctx, archive.Options{
				Bucket:       cfg.Archive.Bucket,
				Endpoint:     cfg.Archive.Endpoint,
				Region:       cfg.Archive.Region,
				AccessKey:    cfg.Archive.AccessKey,
				SecretKey:    cfg.Archive.SecretKey,
				Prefix:       cfg.Archive.Prefix,
				UsePathStyle: cfg.Archive.UsePathStyle,
			})
			if err != nil {
				slog.Warn("archive unavailable", "operation", "archive.connect", "error", err)
			} else {
				deps.Archiver = archiver
			}
		}

		if cfg.Cache.URL != "" {
			c, err := cache.New(ctx, cfg.Cache.URL)
			if err != nil {
				slog.Warn("cache unavailable, delivery marker disabled", "operation", "cache.connect", "error", err)
			} else {
				a.cache = c
				deps.Marker = c
			}
		}

		if a.db != nil {
			recorder, err := history.NewPostgresRecorder(a.db.Pool)
			if err != nil {
				a.Close()
				return nil, err
			}
			deps.History = recorder
		}
	}

	seed := cfg.Exam.Seed
	if opts.seed != "" {
		seed = opts.seed
	}
	a.runner = pipeline.New(deps, pipeline.Options{
		OutputDir:       cfg.Output.Dir,
		Seed:            seed,
		Layout:          exam.NewLayout(cfg.Exam.Sample),
		Strict:          cfg.Exam.Strict,
		PeerDistractors: cfg.Exam.PeerDistractors,
		MarkerTTL:       cfg.Cache.MarkerTTL,
	})
	return a, nil
}

// Close releases connections opened by build.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			slog.Warn("closing cache failed", "error", err)
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// appender returns the vocabulary source as a writable store, if it is one.
func (a *app) appender() vocab.Appender {
	if ap, ok := a.source.(vocab.Appender); ok {
		return ap
	}
	return nil
}

func newChannel(cfg config.DestinationConfig) (chat.Channel, error) {
	switch cfg.Kind {
	case "slack":
		return chat.NewSlackChannelWithBase(cfg.Token, cfg.APIBase)
	case "websocket":
		return chat.NewWebSocketChannel(cfg.URL, cfg.Token)
	case "telegram", "":
		return chat.NewTelegramChannelWithBase(cfg.Token, cfg.APIBase)
	default:
		return nil, fmt.Errorf("unknown destination kind %q", cfg.Kind)
	}
}

// newAIRouter registers every configured provider in fallback order.
func newAIRouter(cfg config.AIConfig) *ai.Router {
	router := ai.NewRouter()

	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			slog.Warn("anthropic provider disabled", "error", err)
		} else {
			router.Register("anthropic", p)
		}
	}
	if cfg.OpenAI.APIKey != "" {
		router.Register("openai", ai.NewOpenAIProvider(cfg.OpenAI.APIKey))
	}
	if cfg.Google.APIKey != "" {
		p, err := ai.NewGoogleProvider(cfg.Google.APIKey)
		if err != nil {
			slog.Warn("google provider disabled", "error", err)
		} else {
			router.Register("google", p)
		}
	}
	if cfg.DeepSeek.APIKey != "" {
		router.Register("deepseek", ai.NewDeepSeekProvider(cfg.DeepSeek.APIKey))
	}
	if cfg.OpenRouter.APIKey != "" {
		router.Register("openrouter", ai.NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		router.Register("ollama", ai.NewOllamaProvider(cfg.Ollama.URL))
	}
	return router
}
