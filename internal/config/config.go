// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, webhook authentication, image-provider
// credentials and sampling parameters, access control, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider identifiers accepted by IMAGE_PROVIDER.
const (
	ProviderOpenAI    = "openai"
	ProviderStability = "stability"
)

// TelegramConfig defines the inbound/outbound chat-transport settings.
type TelegramConfig struct {
	Token         string // TELEGRAM_TOKEN (bot API token)
	PublicURL     string // PUBLIC_URL (externally reachable base URL)
	WebhookSecret string // WEBHOOK_SECRET (shared secret header value)
	WebhookPath   string // WEBHOOK_PATH (path segment, no leading slash)
}

// AccessConfig defines who may invoke image generation.
type AccessConfig struct {
	AllowUserIDs []int64 // ALLOW_USER_IDS (CSV of numeric user ids)
	AccessCode   string  // ACCESS_CODE (optional shared redeem code)
}

// OpenAIConfig holds settings for the OpenAI-style image-edit provider.
type OpenAIConfig struct {
	APIKey   string // OPENAI_API_KEY
	BaseURL  string // OPENAI_BASE_URL
	Model    string // OPENAI_IMAGE_MODEL
	Size     string // OPENAI_IMAGE_SIZE (e.g. "1024x1024")
	MaskPath string // OPENAI_MASK_PATH (optional local PNG mask)
}

// StabilityConfig holds settings for the Stability img2img provider.
type StabilityConfig struct {
	APIKey   string  // STABILITY_API_KEY
	Engine   string  // STABILITY_ENGINE
	Strength float64 // STABILITY_STRENGTH in [0,1]
	CFGScale int     // STABILITY_CFG_SCALE
	Steps    int     // STABILITY_STEPS
	Seed     string  // STABILITY_SEED (optional, passed verbatim when set)
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-image-relay")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // must exceed the provider call timeout
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// Generation
	Provider           string // openai|stability
	PromptPrefix       string // DEFAULT_PROMPT_PREFIX, prepended to every prompt
	ReferenceImagePath string // REFERENCE_IMAGE_PATH (preferred over URL)
	ReferenceImageURL  string // REFERENCE_IMAGE_URL

	// Dedup
	DedupMaxSeen int // DEDUP_MAX_SEEN, bound on the delivery recency window

	// Collaborators
	Telegram  TelegramConfig
	Access    AccessConfig
	OpenAI    OpenAIConfig
	Stability StabilityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		// Webhook handling blocks on provider generation, which can take
		// minutes; the write timeout must outlast the slowest provider call.
		WriteTimeout:      getdur("WRITE_TIMEOUT", 240*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// Generation
		Provider:           strings.ToLower(getenv("IMAGE_PROVIDER", ProviderOpenAI)),
		PromptPrefix:       strings.TrimSpace(getenv("DEFAULT_PROMPT_PREFIX", "")),
		ReferenceImagePath: strings.TrimSpace(getenv("REFERENCE_IMAGE_PATH", "")),
		ReferenceImageURL:  strings.TrimSpace(getenv("REFERENCE_IMAGE_URL", "")),

		// Dedup
		DedupMaxSeen: getint("DEDUP_MAX_SEEN", 5000),

		Telegram: TelegramConfig{
			Token:         strings.TrimSpace(getenv("TELEGRAM_TOKEN", "")),
			PublicURL:     strings.TrimRight(strings.TrimSpace(getenv("PUBLIC_URL", "")), "/"),
			WebhookSecret: getenv("WEBHOOK_SECRET", "change_me"),
			WebhookPath:   strings.Trim(getenv("WEBHOOK_PATH", "hook"), "/"),
		},

		Access: AccessConfig{
			AllowUserIDs: splitIDs(getenv("ALLOW_USER_IDS", "")),
			AccessCode:   strings.TrimSpace(getenv("ACCESS_CODE", "")),
		},

		OpenAI: OpenAIConfig{
			APIKey:   getenv("OPENAI_API_KEY", ""),
			BaseURL:  strings.TrimRight(getenv("OPENAI_BASE_URL", "https://api.openai.com/v1"), "/"),
			Model:    getenv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
			Size:     getenv("OPENAI_IMAGE_SIZE", "1024x1024"),
			MaskPath: strings.TrimSpace(getenv("OPENAI_MASK_PATH", "")),
		},

		Stability: StabilityConfig{
			APIKey:   getenv("STABILITY_API_KEY", ""),
			Engine:   getenv("STABILITY_ENGINE", "stable-diffusion-xl-1024-v1-0"),
			Strength: getfloat("STABILITY_STRENGTH", 0.65),
			CFGScale: getint("STABILITY_CFG_SCALE", 7),
			Steps:    getint("STABILITY_STEPS", 30),
			Seed:     strings.TrimSpace(getenv("STABILITY_SEED", "")),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-image-relay"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if cfg.Telegram.Token == "" {
		return cfg, errors.New("TELEGRAM_TOKEN must not be empty")
	}
	if cfg.Telegram.PublicURL == "" {
		return cfg, errors.New("PUBLIC_URL must not be empty")
	}
	if strings.TrimSpace(cfg.Telegram.WebhookSecret) == "" {
		return cfg, errors.New("WEBHOOK_SECRET must not be empty")
	}
	if cfg.Telegram.WebhookPath == "" {
		return cfg, errors.New("WEBHOOK_PATH must not be empty")
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return cfg, errors.New("OPENAI_API_KEY must be set when IMAGE_PROVIDER=openai")
		}
	case ProviderStability:
		if cfg.Stability.APIKey == "" {
			return cfg, errors.New("STABILITY_API_KEY must be set when IMAGE_PROVIDER=stability")
		}
	default:
		return cfg, errors.New("IMAGE_PROVIDER must be one of: openai, stability")
	}
	if cfg.ReferenceImagePath == "" && cfg.ReferenceImageURL == "" {
		return cfg, errors.New("set REFERENCE_IMAGE_PATH or REFERENCE_IMAGE_URL")
	}
	if cfg.DedupMaxSeen < 1 {
		return cfg, errors.New("DEDUP_MAX_SEEN must be >= 1")
	}
	if cfg.Stability.Strength < 0 || cfg.Stability.Strength > 1 {
		return cfg, errors.New("STABILITY_STRENGTH must be between 0 and 1")
	}
	if cfg.Stability.CFGScale < 1 {
		return cfg, errors.New("STABILITY_CFG_SCALE must be >= 1")
	}
	if cfg.Stability.Steps < 1 {
		return cfg, errors.New("STABILITY_STEPS must be >= 1")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// splitIDs parses a comma-separated list of numeric user ids, silently
// skipping entries that are not valid integers.
func splitIDs(s string) []int64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t == "" {
			continue
		}
		if id, err := strconv.ParseInt(t, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
