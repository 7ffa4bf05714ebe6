package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baxromumarov/job-alerts/internal/api"
	"github.com/baxromumarov/job-alerts/internal/config"
	"github.com/baxromumarov/job-alerts/internal/core"
	"github.com/baxromumarov/job-alerts/internal/httpx"
	"github.com/baxromumarov/job-alerts/internal/notify"
	"github.com/baxromumarov/job-alerts/internal/observability"
	"github.com/baxromumarov/job-alerts/internal/scraper"
	"github.com/baxromumarov/job-alerts/internal/store"
)

func main() {
	cfg, err := config.Load(config.GetConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dedup, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		slog.Error("failed to open dedup store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer dedup.Close()

	zones, err := core.LoadZones(cfg.Zones)
	if err != nil {
		slog.Error("failed to load zones", "error", err)
		os.Exit(1)
	}
	policy := core.Policy{
		Window:         cfg.FreshnessWindow.Duration,
		Zones:          zones,
		Keywords:       cfg.Keywords,
		CountryMarkers: cfg.CountryMarkers,
		RequireRemote:  cfg.RequireRemote,
	}

	client := httpx.NewPoliteClient(cfg.HTTP.UserAgent)
	normalizer := scraper.NewSimpleNormalizer(500)
	registry := scraper.NewRegistry(scraper.ProviderGreenhouse)
	registry.Register(scraper.ProviderGreenhouse, scraper.NewGreenhouseScraper(client, "", normalizer))
	registry.Register(scraper.ProviderLever, scraper.NewLeverScraper(client, ""))
	registry.Register(scraper.ProviderAshby, scraper.NewAshbyScraper(client, ""))
	registry.Register(scraper.ProviderRemoteOK, scraper.NewRemoteOKScraper(client, "", normalizer))

	notifier, err := buildNotifier(cfg, logger)
	if err != nil {
		slog.Error("failed to configure notifiers", "error", err)
		os.Exit(1)
	}

	stats := observability.NewStats()
	opts := []core.PollerOption{
		core.WithConcurrency(cfg.Concurrency),
		core.WithLogger(logger),
		core.WithStats(stats),
	}

	var voiceHandler http.Handler
	if cfg.Twilio.Enabled() && !cfg.DryRun {
		voice, err := notify.NewVoice(notify.VoiceConfig{
			AccountSID:  cfg.Twilio.AccountSID,
			AuthToken:   cfg.Twilio.AuthToken,
			From:        cfg.Twilio.From,
			To:          cfg.Twilio.To,
			CallbackURL: cfg.Twilio.CallbackURL,
		}, logger)
		if err != nil {
			slog.Error("failed to configure voice alerts", "error", err)
			os.Exit(1)
		}
		opts = append(opts, core.WithAlerter(voice))
		voiceHandler = notify.TwiMLHandler(cfg.Twilio.Message)
	}

	poller := core.NewPoller(registry, dedup, notifier, policy, opts...)
	service := core.NewService(poller, dedup, cfg.Sources, cfg.DedupTTL.Duration, logger, stats)

	scheduler, err := core.NewSchedulerService(service, cfg.Schedule, logger)
	if err != nil {
		slog.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewServer(dedup, service, voiceHandler).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("starting server",
		"addr", cfg.HTTP.Addr,
		"sources", len(cfg.Sources),
		"window", cfg.FreshnessWindow.String(),
		"ttl", cfg.DedupTTL.String(),
		"schedule", cfg.Schedule,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	scheduler.Stop()
	slog.Info("shut down")
}

func buildNotifier(cfg config.Config, logger *slog.Logger) (core.Notifier, error) {
	if cfg.DryRun {
		return notify.NewLog(logger), nil
	}

	var channels notify.Multi
	if cfg.Email.Enabled() {
		email, err := notify.NewEmail(notify.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
			To:       cfg.Email.To,
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, email)
	}
	if cfg.Telegram.Enabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		channels = append(channels, tg)
	}

	if len(channels) == 0 {
		logger.Warn("no notification channel configured, alerts are only logged")
		return notify.NewLog(logger), nil
	}
	return channels, nil
}
