package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clipstream-dev/clipstream/internal/api/handler"
	"github.com/clipstream-dev/clipstream/internal/api/middleware"
	"github.com/clipstream-dev/clipstream/internal/config"
	"github.com/clipstream-dev/clipstream/internal/downloader"
	"github.com/clipstream-dev/clipstream/internal/infrastructure/cache"
	"github.com/clipstream-dev/clipstream/internal/infrastructure/postgres"
	"github.com/clipstream-dev/clipstream/internal/infrastructure/storage"
	"github.com/clipstream-dev/clipstream/internal/transcoder"
	"github.com/clipstream-dev/clipstream/internal/usecase"
	"github.com/clipstream-dev/clipstream/internal/workspace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	resolver := workspace.NewResolver(cfg.Media.RootDir)
	if err := resolver.EnsureRoot(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, resolver, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.Downloader.Probe(ctx); err != nil {
		logger.Warn("downloader unavailable, jobs will fail until it is installed",
			slog.String("error", err.Error()))
	}

	svc := usecase.NewJobService(deps, usecase.Config{
		MaxConcurrent: cfg.Jobs.MaxConcurrent,
		JobTimeout:    cfg.Jobs.Timeout,
	})

	if cfg.Jobs.Retention > 0 {
		janitor := workspace.NewJanitor(resolver, cfg.Jobs.Retention, cfg.Jobs.SweepInterval, logger)
		go janitor.Run(ctx)
	}

	r := setupRouter(svc, resolver, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildDeps wires the orchestrator's collaborators. The history, index and
// archive backends are optional: when disabled the service runs from local
// disk alone.
func buildDeps(ctx context.Context, cfg *config.Config, resolver *workspace.Resolver, logger *slog.Logger) (usecase.Deps, func(), error) {
	dlCfg := downloader.DefaultConfig()
	dlCfg.BinaryPath = cfg.Media.YtDlpPath

	tcCfg := transcoder.DefaultFFmpegConfig()
	tcCfg.FFmpegPath = cfg.Media.FFmpegPath
	tcCfg.FFprobePath = cfg.Media.FFprobePath
	if cfg.Media.SegmentSeconds > 0 {
		tcCfg.SegmentSeconds = cfg.Media.SegmentSeconds
	}

	deps := usecase.Deps{
		Downloader: downloader.NewYtDlp(dlCfg),
		Transcoder: transcoder.NewFFmpeg(tcCfg),
		Paths:      resolver,
		Logger:     logger,
	}
	cleanup := func() {}

	if cfg.Database.Enabled {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pg, err := postgres.NewClient(initCtx, postgres.DefaultClientConfig(cfg.Database.DSN()))
		if err != nil {
			return usecase.Deps{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		deps.History = postgres.NewClipRepository(pg.Pool())
		cleanup = pg.Close
		logger.Info("clip history enabled")
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		deps.Index = cache.NewRedisArtifactIndex(client)
		logger.Info("artifact index enabled", slog.String("addr", cfg.Redis.Addr))
	}

	if cfg.MinIO.Enabled {
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		archive, err := storage.NewClient(initCtx, storage.ClientConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
		})
		if err != nil {
			return usecase.Deps{}, nil, fmt.Errorf("connect minio: %w", err)
		}
		deps.Archive = archive
		logger.Info("rendition archive enabled", slog.String("bucket", archive.Bucket()))
	}

	return deps, cleanup, nil
}

func setupRouter(svc usecase.JobService, resolver *workspace.Resolver, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	video := handler.NewVideoHandler(svc, resolver, logger)
	r.Route("/video", func(r chi.Router) {
		r.Get("/", video.Root)
		r.Get("/play/{clipID}", video.Play)
		r.Get("/downloadClip", video.DownloadClip)
		r.Get("/downloadHlsClip", video.DownloadHLSClip)
		r.Get("/download", video.Download)
		r.Get("/direct", video.Direct)
		r.Get("/file/{filename}", video.File)
		r.Get("/stream/{videoID}", video.Stream)
		r.Get("/hls/{videoID}/playlist.m3u8", video.Playlist)
		r.Get("/hls/{videoID}/{segment}", video.Segment)
		r.Get("/clips", video.Clips)
	})

	return r
}
