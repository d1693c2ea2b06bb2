package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"suitcraft.com/web/internal/catalog"
	"suitcraft.com/web/internal/config"
	"suitcraft.com/web/internal/contact"
	"suitcraft.com/web/internal/content"
	mw "suitcraft.com/web/internal/middleware"
	"suitcraft.com/web/internal/observability"
	"suitcraft.com/web/templates"
)

func main() {
	var (
		addr        string
		tmplPath    string
		contentFile string
	)
	flag.StringVar(&addr, "addr", "", "HTTP listen address (overrides SUITCRAFT_WEB_ADDR)")
	flag.StringVar(&tmplPath, "templates", "", "templates directory read in dev mode (overrides SUITCRAFT_WEB_TEMPLATES_DIR)")
	flag.StringVar(&contentFile, "content", "", "YAML file overriding the built-in storefront content")
	flag.Parse()

	logger, err := observability.NewLogger()
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if tmplPath != "" {
		cfg.Site.TemplatesDir = tmplPath
	}
	if contentFile != "" {
		cfg.Site.ContentFile = contentFile
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("web server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	shutdownTracing := observability.SetupTracing(cfg.Trace.ServiceName, cfg.Trace.SampleRatio)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("shutdown tracing", zap.Error(err))
		}
	}()

	site, err := catalog.Load(cfg.Site.ContentFile)
	if err != nil {
		return err
	}
	about, err := content.About()
	if err != nil {
		return err
	}

	var rdb redis.UniversalClient
	if cfg.NeedsRedis() {
		client, err := openRedis(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer client.Close()
		rdb = client
	}

	metrics := observability.NewMetrics()
	sink, err := contact.Open(ctx, cfg.Contact, rdb, logger)
	if err != nil {
		return fmt.Errorf("open contact sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("close contact sink", zap.Error(err))
		}
	}()

	var store mw.StateStore = mw.NewMemoryStateStore()
	var limiter mw.Limiter = mw.NewTokenBucket(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	if cfg.Session.Store == config.StoreRedis {
		store = mw.NewRedisStateStore(rdb, "")
	}
	if cfg.RateLimit.Store == config.StoreRedis {
		limiter = mw.NewRedisTokenBucket(rdb, cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	}

	// Dev mode reads templates from disk so edits show up without a rebuild.
	var tmplFS fs.FS = templates.FS
	if cfg.Server.Dev {
		tmplFS = os.DirFS(cfg.Site.TemplatesDir)
	}
	rend, err := newRenderer(tmplFS)
	if err != nil {
		return err
	}

	srv := newServer(serverDeps{
		Config:    cfg,
		Site:      site,
		About:     about,
		Renderer:  rend,
		Store:     store,
		Deliverer: contact.Instrument(sink, metrics),
		Limiter:   limiter,
		Metrics:   metrics,
		Logger:    logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("basePath", cfg.Site.BasePath),
			zap.String("contactSink", sink.Name()),
			zap.Bool("devMode", cfg.Server.Dev),
		)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	if cfg.Server.Dev {
		g.Go(func() error {
			return watchTemplates(gctx, cfg.Site.TemplatesDir, rend, logger)
		})
	}
	return g.Wait()
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}
