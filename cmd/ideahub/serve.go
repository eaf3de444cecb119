package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ideahub/internal/config"
	"github.com/kailas-cloud/ideahub/internal/db"
	dbRedis "github.com/kailas-cloud/ideahub/internal/db/redis"
	"github.com/kailas-cloud/ideahub/internal/domain"
	logpkg "github.com/kailas-cloud/ideahub/internal/logger"
	"github.com/kailas-cloud/ideahub/internal/metrics"
	"github.com/kailas-cloud/ideahub/internal/realtime"
	repoidea "github.com/kailas-cloud/ideahub/internal/repository/idea"
	"github.com/kailas-cloud/ideahub/internal/repository/sqlite"
	chiTransport "github.com/kailas-cloud/ideahub/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/ideahub/internal/transport/openai"
	groupuc "github.com/kailas-cloud/ideahub/internal/usecase/group"
	healthuc "github.com/kailas-cloud/ideahub/internal/usecase/health"
	ideauc "github.com/kailas-cloud/ideahub/internal/usecase/idea"
	"github.com/kailas-cloud/ideahub/internal/usecase/match"
	"github.com/kailas-cloud/ideahub/internal/usecase/tagging"
	"github.com/kailas-cloud/ideahub/internal/version"
)

const warmUpTimeout = 20 * time.Second

// ideaBackend is everything the services need from the idea store, whichever driver backs it.
type ideaBackend struct {
	repo     ideauc.Repository
	source   match.CandidateSource
	pinger   healthuc.DBPinger
	redis    *dbRedis.Store // nil on sqlite
	closeFns []func()
}

func (b *ideaBackend) Close() {
	for _, fn := range slices.Backward(b.closeFns) {
		fn()
	}
}

func runServe(ctx context.Context, env string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.New(logpkg.Options{
		Env:    env,
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ideahub API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("match_source", cfg.Matching.Source),
	)

	metrics.RegisterAll()

	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	// The cache needs a key-value store; only the redis driver provides one.
	var cache db.Cache
	if backend.redis != nil {
		cache = backend.redis
	}
	embedder := buildEmbedder(cfg.Embedding, cache, logger)
	warmUp(ctx, embedder, logger)

	// Pass a nil interface (not a typed nil pointer) when the chat model is not configured.
	var llm domain.Completer
	if cfg.LLM.APIKey != "" {
		llm = openaiTransport.NewCompleter(&openaiTransport.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Timeout: time.Duration(cfg.LLM.TimeoutSec) * time.Second,
			Logger:  logger,
		})
	} else {
		logger.Warn("llm.api_key is empty; tag and group-name suggestion are disabled")
	}

	matchSvc := match.New(embedder, backend.source, match.Config{
		Threshold: *cfg.Matching.Threshold,
		Limit:     cfg.Matching.CandidateCount,
		Strict:    cfg.Matching.StrictDimensions,
	}, logger.Named("match"))
	tagSvc := tagging.New(llm, cfg.LLM.TagLanguage, logger.Named("tagging"))
	groupSvc := groupuc.New(llm, cfg.LLM.DefaultGroupName, logger.Named("group"))

	var (
		hub       *realtime.Hub
		publisher ideauc.Publisher
		wsHandler http.Handler
	)
	if *cfg.Realtime.Enabled {
		hub = realtime.NewHub(originPolicy(cfg.HTTP.AllowedOrigins), logger.Named("realtime"))
		go hub.Run(ctx)
		wsHandler = http.HandlerFunc(hub.ServeWS)

		if backend.redis != nil {
			publisher = realtime.NewStorePublisher(backend.redis, cfg.Realtime.Channel)
			go realtime.Relay(ctx, backend.redis, cfg.Realtime.Channel, hub, logger.Named("realtime"))
		} else {
			publisher = realtime.NewLocalPublisher(hub)
		}
	}

	ideaSvc := ideauc.New(backend.repo, embedder, matchSvc, tagSvc, publisher, logger.Named("idea")).
		WithEmbedTimeout(time.Duration(cfg.Matching.EmbedTimeoutSec) * time.Second)
	healthSvc := healthuc.New(backend.pinger, newEmbeddingHealthChecker(embedder), tagSvc)

	server := chiTransport.NewServer(ideaSvc, tagSvc, groupSvc, embedder, healthSvc, wsHandler, logger)
	handler := chiTransport.NewRouter(server, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// openBackend connects the configured idea store and picks the candidate source.
func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (*ideaBackend, error) {
	switch cfg.Database.Driver {
	case config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		b := &ideaBackend{pinger: store, redis: store, closeFns: []func(){store.Close}}

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			b.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))

		repo := repoidea.New(store, cfg.Embedding.Dimensions)
		if err := repo.EnsureIndex(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ensure idea index: %w", err)
		}
		b.repo = repo
		if cfg.Matching.Source == config.SourceLocal {
			b.source = match.NewLocalListSource(repo)
		} else {
			b.source = match.NewRemoteRankedSource(repo, cfg.Matching.CandidateCount)
		}
		return b, nil

	case config.DriverSQLite:
		repo, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("Opened sqlite idea store", zap.String("path", cfg.Database.SQLitePath))
		return &ideaBackend{
			repo:   repo,
			source: match.NewLocalListSource(repo),
			pinger: repo,
			closeFns: []func(){func() {
				if err := repo.Close(); err != nil {
					logger.Warn("Closing sqlite", zap.Error(err))
				}
			}},
		}, nil

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// warmUp embeds a probe string so the first submission does not pay for a cold model.
// Failure is logged, not fatal: health reports the vectorizer state.
func warmUp(ctx context.Context, embedder domain.Embedder, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, warmUpTimeout)
	defer cancel()

	start := time.Now()
	if _, err := embedder.Embed(ctx, "warm up"); err != nil {
		logger.Warn("Embedding warm-up failed", zap.Error(err))
		return
	}
	logger.Info("Embedding warm-up done", zap.Duration("took", time.Since(start)))
}

// originPolicy returns nil (accept all) for an empty allow-list.
func originPolicy(allowed []string) func(string) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(origin string) bool {
		return slices.Contains(allowed, origin)
	}
}
