package main

import (
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"suitcraft.com/web/internal/catalog"
	"suitcraft.com/web/internal/config"
	"suitcraft.com/web/internal/contact"
	"suitcraft.com/web/internal/content"
	mw "suitcraft.com/web/internal/middleware"
	"suitcraft.com/web/internal/nav"
	"suitcraft.com/web/internal/observability"
	"suitcraft.com/web/internal/seo"
	"suitcraft.com/web/public"
)

const (
	requestTimeout = 10 * time.Second
	maxFormBytes   = 64 << 10
)

// server holds everything the handlers share. All fields are read-only after
// newServer returns; per-visitor state lives in the session store.
type server struct {
	cfg       config.Config
	site      catalog.Site
	about     content.Document
	renderer  *renderer
	sessions  *mw.Sessions
	deliverer contact.Deliverer
	limiter   mw.Limiter
	metrics   *observability.Metrics
	logger    *zap.Logger

	meta           seo.Meta
	storeJSONLD    template.JS
	productsJSONLD template.JS
}

type serverDeps struct {
	Config    config.Config
	Site      catalog.Site
	About     content.Document
	Renderer  *renderer
	Store     mw.StateStore
	Deliverer contact.Deliverer
	Limiter   mw.Limiter
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

func newServer(d serverDeps) *server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	limiter := d.Limiter
	if limiter == nil {
		limiter = mw.NewTokenBucket(d.Config.RateLimit.Capacity, d.Config.RateLimit.RefillRate)
	}
	meta := pageMeta(d.Site, d.About, d.Config.Site.BasePath)
	return &server{
		cfg:       d.Config,
		site:      d.Site,
		about:     d.About,
		renderer:  d.Renderer,
		deliverer: d.Deliverer,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
		sessions: mw.NewSessions(mw.SessionOptions{
			SigningKey: d.Config.Session.SigningKey,
			Secure:     d.Config.Session.Secure,
			Path:       d.Config.Site.BasePath,
			TTL:        d.Config.Session.TTL,
			Store:      d.Store,
			Logger:     logger,
		}),
		meta:           meta,
		storeJSONLD:    storeSchema(d.Site, meta.Canonical),
		productsJSONLD: productsSchema(d.Site),
	}
}

// routes builds the router. Health and metrics stay at the root; the page and
// its assets are mounted under the configured base path.
func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMid.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chiMid.RealIP)
	r.Use(mw.RequestLogger(s.logger))
	r.Use(chiMid.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", s.metrics.Handler())

	app := chi.NewRouter()
	app.Use(chiMid.Compress(5))
	app.Use(chiMid.Timeout(requestTimeout))
	app.Use(chiMid.RequestSize(maxFormBytes))
	app.Use(mw.HTMX)

	base := s.cfg.Site.BasePath
	assetsPrefix := nav.Join(base, "assets")
	app.Handle("/assets/*", http.StripPrefix(assetsPrefix, mw.AssetsWithCache(public.Static(), s.cfg.Server.Dev)))

	app.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware)
		r.Use(s.sessions.CSRF)

		r.Get("/", s.handleHome)
		r.Post("/ui/menu", s.handleToggleMenu)
		r.Get("/go/{section}", s.handleSelectSection)
		r.Post("/contact/field", s.handleUpdateField)
		r.With(mw.RateLimit(s.limiter, s.contactLimited)).Post("/contact", s.handleSubmit)
	})

	if base == "/" {
		r.Mount("/", app)
	} else {
		r.Mount(base, app)
	}
	return r
}
