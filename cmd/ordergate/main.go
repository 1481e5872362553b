package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/genai"

	"github.com/kioskvoice/ordergate/internal/dotenv"
	"github.com/kioskvoice/ordergate/pkg/chat/registry"
	"github.com/kioskvoice/ordergate/pkg/chat/relay"
	"github.com/kioskvoice/ordergate/pkg/chat/speechin"
	"github.com/kioskvoice/ordergate/pkg/chat/speechout"
	"github.com/kioskvoice/ordergate/pkg/gateway/config"
	gatewayserver "github.com/kioskvoice/ordergate/pkg/gateway/server"
	"github.com/kioskvoice/ordergate/pkg/menu"
	menugemini "github.com/kioskvoice/ordergate/pkg/menu/gemini"
	menupostgres "github.com/kioskvoice/ordergate/pkg/menu/postgres"
	"github.com/kioskvoice/ordergate/pkg/order"
	"github.com/kioskvoice/ordergate/pkg/speech/cartesia"
)

type gateDeps struct {
	loadConfig   func() (config.Config, error)
	openCatalog  func(ctx context.Context, cfg config.Config, logger *slog.Logger) (menu.Store, func(), error)
	newSuggester func(ctx context.Context, cfg config.Config) (menu.Suggester, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultGateDeps() gateDeps {
	return gateDeps{
		loadConfig:   config.LoadFromEnv,
		openCatalog:  openCatalog,
		newSuggester: newSuggester,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// openCatalog returns the menu store plus a close func. With a database
// configured it migrates and serves from Postgres; otherwise the built-in
// catalog is used.
func openCatalog(ctx context.Context, cfg config.Config, logger *slog.Logger) (menu.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("menu catalog", "backend", "memory")
		return menu.DefaultCatalog(), func() {}, nil
	}

	store, err := menupostgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open menu database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("migrate menu database: %w", err)
	}
	logger.Info("menu catalog", "backend", "postgres")
	return store, store.Close, nil
}

func newSuggester(ctx context.Context, cfg config.Config) (menu.Suggester, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return menugemini.NewSuggester(client), nil
}

func buildRelay(ctx context.Context, cfg config.Config, logger *slog.Logger, deps gateDeps) (*relay.Relay, func(), error) {
	store, closeStore, err := deps.openCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	suggester, err := deps.newSuggester(ctx, cfg)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	relayDeps := relay.Deps{
		Registry: registry.New(
			registry.WithLogger(logger),
			registry.WithQueueSize(cfg.OutboundQueueSize),
			registry.WithWriteTimeout(cfg.WriteTimeout),
		),
		Searcher: menu.NewService(store, suggester, logger),
		Logger:   logger,
	}

	if cfg.FeatureSTT {
		relayDeps.Recognition = speechin.NewCoordinator(
			cartesia.NewRecognizer(cfg.CartesiaAPIKey),
			speechin.WithTimeout(cfg.SttFinalizeTimeout),
			speechin.WithLogger(logger),
		)
	}

	var streamer *speechout.Streamer
	if cfg.FeatureTTS {
		streamer = speechout.NewStreamer(
			cartesia.NewSynthesizer(cfg.CartesiaAPIKey, cartesia.WithLanguage(cfg.Language)),
			speechout.WithWorkers(cfg.TTSWorkers),
			speechout.WithChunkSize(cfg.TTSChunkSize),
			speechout.WithChunkDelay(cfg.TTSChunkDelay),
			speechout.WithLogger(logger),
		)
		relayDeps.Speech = streamer
	}

	if cfg.OrderWebhookURL != "" {
		relayDeps.Orders = order.NewWebhookSink(cfg.OrderWebhookURL, order.WithLogger(logger))
	}

	cleanup := func() {
		if streamer != nil {
			streamer.Close()
		}
		closeStore()
	}
	return relay.New(relayDeps), cleanup, nil
}

func runGate(ctx context.Context, logger *slog.Logger, deps gateDeps) error {
	if deps.loadConfig == nil || deps.openCatalog == nil || deps.newSuggester == nil {
		return errors.New("missing dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rly, cleanup, err := buildRelay(ctx, cfg, logger, deps)
	if err != nil {
		return err
	}
	defer cleanup()

	gw := gatewayserver.New(cfg, logger, rly)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	logger.Info("starting gateway",
		"addr", cfg.Addr,
		"stt", cfg.FeatureSTT,
		"tts", cfg.FeatureTTS,
	)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("gateway stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps gateDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.Load(".env"); err != nil {
		fmt.Fprintf(stderr, "ordergate: %v\n", err)
		return 1
	}

	if err := runGate(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "ordergate: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultGateDeps()))
}
