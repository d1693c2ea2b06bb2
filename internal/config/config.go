package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envPrefix = "SUITCRAFT_WEB_"

	defaultEnvFile          = ".env"
	defaultAddr             = ":8080"
	defaultEnvironment      = "local"
	defaultBasePath         = "/"
	defaultTemplatesDir     = "templates"
	defaultReadHeader       = 10 * time.Second
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultContactSink      = SinkLog
	defaultContactTimeout   = 5 * time.Second
	defaultContactAttempts  = 3
	defaultRedisStream      = "suitcraft:contact"
	defaultRateLimitBurst   = 5
	defaultRateLimitRefill  = 0.1
	defaultShutdownDeadline = 10 * time.Second
	defaultSessionTTL       = 24 * time.Hour
	defaultServiceName      = "suitcraft-web"
	defaultTraceSampleRatio = 1.0
)

// Backing stores for per-visitor page state and rate-limit buckets.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Contact sink identifiers accepted by SUITCRAFT_WEB_CONTACT_SINK.
const (
	SinkLog      = "log"
	SinkWebhook  = "webhook"
	SinkPostgres = "postgres"
	SinkRedis    = "redis"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Site      SiteConfig
	Session   SessionConfig
	Contact   ContactConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Trace     TraceConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr              string
	Environment       string
	Dev               bool
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

// SiteConfig controls where the page is mounted and where its sources live.
type SiteConfig struct {
	BasePath     string
	TemplatesDir string
	ContentFile  string
}

// SessionConfig holds the cookie signing secret and where page state lives.
type SessionConfig struct {
	SigningKey string
	Secure     bool
	Store      string
	TTL        time.Duration
}

// ContactConfig selects and tunes the contact delivery sink.
type ContactConfig struct {
	Sink        string
	WebhookURL  string
	Timeout     time.Duration
	MaxAttempts int
	DatabaseURL string
	RedisStream string
}

// RateLimitConfig throttles contact submissions per client.
type RateLimitConfig struct {
	Store      string
	Capacity   int
	RefillRate float64
}

// RedisConfig is shared by every component that can use Redis.
type RedisConfig struct {
	URL string
}

// TraceConfig controls the tracer provider installed at startup.
type TraceConfig struct {
	ServiceName string
	SampleRatio float64
}

// NeedsRedis reports whether any component is configured to use Redis.
func (c Config) NeedsRedis() bool {
	return c.Contact.Sink == SinkRedis || c.Session.Store == StoreRedis || c.RateLimit.Store == StoreRedis
}

// Production reports whether the service runs with production hardening.
func (c Config) Production() bool {
	return c.Server.Environment == "prod"
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, environment
// variables and explicit maps (in increasing precedence).
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run style PORT is honoured when no explicit address is set.
	addr := defaultAddr
	if port := stringWithDefault(lookup, "PORT", ""); port != "" {
		addr = ":" + port
	}

	cfg := Config{
		Server: ServerConfig{
			Addr:              stringWithDefault(lookup, envPrefix+"ADDR", addr),
			Environment:       strings.ToLower(stringWithDefault(lookup, envPrefix+"ENV", defaultEnvironment)),
			Dev:               boolWithDefault(lookup, envPrefix+"DEV", false),
			ReadHeaderTimeout: durationWithDefault(lookup, envPrefix+"READ_HEADER_TIMEOUT", defaultReadHeader),
			ReadTimeout:       durationWithDefault(lookup, envPrefix+"READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:      durationWithDefault(lookup, envPrefix+"WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:       durationWithDefault(lookup, envPrefix+"IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout:   durationWithDefault(lookup, envPrefix+"SHUTDOWN_TIMEOUT", defaultShutdownDeadline),
		},
		Site: SiteConfig{
			BasePath:     NormalizeBasePath(stringWithDefault(lookup, envPrefix+"BASE_PATH", defaultBasePath)),
			TemplatesDir: stringWithDefault(lookup, envPrefix+"TEMPLATES_DIR", defaultTemplatesDir),
			ContentFile:  stringWithDefault(lookup, envPrefix+"CONTENT_FILE", ""),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, envPrefix+"SESSION_SIGNING_KEY", ""),
			Store:      strings.ToLower(stringWithDefault(lookup, envPrefix+"SESSION_STORE", StoreMemory)),
			TTL:        durationWithDefault(lookup, envPrefix+"SESSION_TTL", defaultSessionTTL),
		},
		Contact: ContactConfig{
			Sink:        strings.ToLower(stringWithDefault(lookup, envPrefix+"CONTACT_SINK", defaultContactSink)),
			WebhookURL:  stringWithDefault(lookup, envPrefix+"CONTACT_WEBHOOK_URL", ""),
			Timeout:     durationWithDefault(lookup, envPrefix+"CONTACT_TIMEOUT", defaultContactTimeout),
			MaxAttempts: intWithDefault(lookup, envPrefix+"CONTACT_MAX_ATTEMPTS", defaultContactAttempts),
			DatabaseURL: stringWithDefault(lookup, envPrefix+"DATABASE_URL", ""),
			RedisStream: stringWithDefault(lookup, envPrefix+"REDIS_STREAM", defaultRedisStream),
		},
		RateLimit: RateLimitConfig{
			Store:      strings.ToLower(stringWithDefault(lookup, envPrefix+"RATE_LIMIT_STORE", StoreMemory)),
			Capacity:   intWithDefault(lookup, envPrefix+"RATE_LIMIT_CAPACITY", defaultRateLimitBurst),
			RefillRate: floatWithDefault(lookup, envPrefix+"RATE_LIMIT_REFILL", defaultRateLimitRefill),
		},
		Redis: RedisConfig{
			URL: stringWithDefault(lookup, envPrefix+"REDIS_URL", ""),
		},
		Trace: TraceConfig{
			ServiceName: stringWithDefault(lookup, envPrefix+"SERVICE_NAME", defaultServiceName),
			SampleRatio: floatWithDefault(lookup, envPrefix+"TRACE_SAMPLE_RATIO", defaultTraceSampleRatio),
		},
	}
	cfg.Session.Secure = cfg.Production()

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		missing = append(missing, "Server.Addr")
	}
	if cfg.Production() && strings.TrimSpace(cfg.Session.SigningKey) == "" {
		missing = append(missing, "Session.SigningKey")
	}
	switch cfg.Contact.Sink {
	case SinkLog:
	case SinkWebhook:
		if cfg.Contact.WebhookURL == "" {
			missing = append(missing, "Contact.WebhookURL")
		}
	case SinkPostgres:
		if cfg.Contact.DatabaseURL == "" {
			missing = append(missing, "Contact.DatabaseURL")
		}
	case SinkRedis:
	default:
		missing = append(missing, "Contact.Sink")
	}
	if cfg.Contact.MaxAttempts <= 0 {
		missing = append(missing, "Contact.MaxAttempts")
	}
	if cfg.Contact.Timeout <= 0 {
		missing = append(missing, "Contact.Timeout")
	}
	if !knownStore(cfg.Session.Store) {
		missing = append(missing, "Session.Store")
	}
	if cfg.Session.TTL <= 0 {
		missing = append(missing, "Session.TTL")
	}
	if !knownStore(cfg.RateLimit.Store) {
		missing = append(missing, "RateLimit.Store")
	}
	if cfg.NeedsRedis() && cfg.Redis.URL == "" {
		missing = append(missing, "Redis.URL")
	}
	if cfg.RateLimit.Capacity <= 0 {
		missing = append(missing, "RateLimit.Capacity")
	}
	if cfg.RateLimit.RefillRate <= 0 {
		missing = append(missing, "RateLimit.RefillRate")
	}
	if cfg.Trace.SampleRatio < 0 || cfg.Trace.SampleRatio > 1 {
		missing = append(missing, "Trace.SampleRatio")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func knownStore(v string) bool {
	return v == StoreMemory || v == StoreRedis
}

// NormalizeBasePath returns "/" or a path with a leading slash and no trailing slash.
func NormalizeBasePath(path string) string {
	p := strings.TrimSpace(path)
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", path, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
