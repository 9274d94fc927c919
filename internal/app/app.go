// Package app wires the configuration into running components and owns
// the process lifecycle.
package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kaizau/pinyin-ktv-replit/internal/config"
	"github.com/kaizau/pinyin-ktv-replit/internal/lyrics"
	"github.com/kaizau/pinyin-ktv-replit/internal/pinyin"
	"github.com/kaizau/pinyin-ktv-replit/internal/server"
	"github.com/kaizau/pinyin-ktv-replit/internal/session"
	"github.com/kaizau/pinyin-ktv-replit/internal/songinfo"
	"github.com/kaizau/pinyin-ktv-replit/pkg/ai"
	"github.com/kaizau/pinyin-ktv-replit/pkg/ai/gemini"
	"github.com/kaizau/pinyin-ktv-replit/pkg/ai/openai"
	"github.com/kaizau/pinyin-ktv-replit/pkg/cache"
	"github.com/kaizau/pinyin-ktv-replit/pkg/lrclib"
	"github.com/kaizau/pinyin-ktv-replit/pkg/translate"
	"github.com/kaizau/pinyin-ktv-replit/pkg/youtube"
)

type App struct {
	cfg      *config.Config
	sessions *session.Manager
	server   *server.Server
	lookup   cache.Cache
}

func New(cfg *config.Config) *App {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	lookup := newCache(cfg.Cache)

	var translator lyrics.Translator
	if cfg.Translate.SecretID != "" && cfg.Translate.SecretKey != "" {
		t, err := translate.NewTencent(cfg.Translate.SecretID, cfg.Translate.SecretKey)
		if err != nil {
			log.Warn().Err(err).Msg("translation disabled")
		} else {
			translator = t
		}
	}

	parser := lyrics.NewParser(
		pinyin.NewConverter(),
		translator,
		cfg.Session.LineWindow.Seconds(),
	)
	sessions := session.NewManager(parser, cfg.Session.TickInterval, cfg.Session.IdleTTL)

	srv := server.New(server.Options{
		Lyrics:    lrclib.NewClient(),
		Video:     youtube.NewClient(),
		Extractor: songinfo.NewExtractor(newAIClient(cfg.AI)),
		Sessions:  sessions,
		Cache:     lookup,
		StaticDir: cfg.Server.StaticDir,
	})

	return &App{cfg: cfg, sessions: sessions, server: srv, lookup: lookup}
}

func newCache(cfg config.CacheConfig) cache.Cache {
	if cfg.Backend == "redis" {
		c, err := cache.NewRedis(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, using in-memory cache")
			return cache.NewMemory(cfg.TTL)
		}
		log.Info().Str("addr", cfg.Addr).Msg("using redis lookup cache")
		return c
	}
	return cache.NewMemory(cfg.TTL)
}

func newAIClient(cfg config.AIConfig) ai.Client {
	if cfg.APIKey == "" {
		return nil
	}
	switch cfg.ModuleName {
	case "gemini", "":
		client, err := gemini.NewGemini(cfg.APIKey, "")
		if err != nil {
			log.Warn().Err(err).Msg("gemini unavailable, song info extraction falls back to heuristic")
			return nil
		}
		return client
	case "openai":
		return openai.NewOpenAi(cfg.APIKey, "gpt-4o-mini", cfg.BaseURL)
	default:
		log.Warn().Str("module", cfg.ModuleName).Msg("unknown ai module, song info extraction falls back to heuristic")
		return nil
	}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then
// shuts down gracefully.
func (a *App) Run() error {
	if err := a.sessions.Start(); err != nil {
		return err
	}
	defer a.sessions.Stop()

	httpServer := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.Server.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if closer, ok := a.lookup.(*cache.Redis); ok {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
	return nil
}
