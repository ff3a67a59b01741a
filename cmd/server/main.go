// Command server runs the image relay bot: it registers the Telegram webhook,
// loads the reference image, selects an image provider, and serves the HTTP
// surface (webhook, health, metrics) until terminated.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-image-relay/internal/access"
	"github.com/tbourn/go-image-relay/internal/config"
	"github.com/tbourn/go-image-relay/internal/dedup"
	httpapi "github.com/tbourn/go-image-relay/internal/http"
	"github.com/tbourn/go-image-relay/internal/observability"
	"github.com/tbourn/go-image-relay/internal/provider"
	"github.com/tbourn/go-image-relay/internal/refimage"
	"github.com/tbourn/go-image-relay/internal/services"
	"github.com/tbourn/go-image-relay/internal/sysutil"
	"github.com/tbourn/go-image-relay/internal/telegram"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

const (
	startupTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	// Local development convenience; absent .env is fine.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)

	log.Info().
		Str("version", sysutil.FirstNonEmpty(version, "dev")).
		Str("provider", cfg.Provider).
		Msg("starting image relay")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing (no-op unless OTEL_ENABLED).
	otelShutdown, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown failed")
		}
	}()

	// The reference image conditions every generation; refusing to start
	// without it beats serving a bot that can never fulfill a request.
	startCtx, cancelStart := context.WithTimeout(ctx, startupTimeout)
	defer cancelStart()
	refPNG, err := refimage.Load(startCtx, cfg.ReferenceImagePath, cfg.ReferenceImageURL)
	if err != nil {
		log.Fatal().Err(err).Msg("reference image load failed")
	}
	log.Info().Int("bytes", len(refPNG)).Msg("reference image loaded")

	// Telegram webhook registration. Backlogged updates are dropped so a
	// redeploy does not replay a queue of stale generation requests.
	tg := telegram.NewClient(cfg.Telegram.Token)
	hookURL := cfg.Telegram.PublicURL + "/" + cfg.Telegram.WebhookPath
	if err := tg.SetWebhook(startCtx, hookURL, cfg.Telegram.WebhookSecret, true); err != nil {
		log.Fatal().Err(err).Msg("webhook registration failed")
	}
	log.Info().Str("path", "/"+cfg.Telegram.WebhookPath).Msg("webhook registered")

	pipeline := &services.PipelineService{
		Window: dedup.NewWindow(cfg.DedupMaxSeen),
		Guard:  access.NewGuard(cfg.Access.AllowUserIDs, cfg.Access.AccessCode),
		Sender: tg,
		Generator: &services.GenerationService{
			Provider:     provider.FromConfig(cfg),
			ProviderName: cfg.Provider,
			PromptPrefix: cfg.PromptPrefix,
			RefPNG:       refPNG,
		},
	}

	r := gin.New()
	httpapi.RegisterRoutes(r, pipeline, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
