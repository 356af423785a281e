package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	campaignStore "github.com/MrJamesThe3rd/pawfund/internal/campaign/store"
	"github.com/MrJamesThe3rd/pawfund/internal/checkout"
	"github.com/MrJamesThe3rd/pawfund/internal/config"
	"github.com/MrJamesThe3rd/pawfund/internal/database"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
	"github.com/MrJamesThe3rd/pawfund/internal/fx"
	"github.com/MrJamesThe3rd/pawfund/internal/gateway"
	pawfundHttp "github.com/MrJamesThe3rd/pawfund/internal/http"
	"github.com/MrJamesThe3rd/pawfund/internal/http/auth"
	campaignHandler "github.com/MrJamesThe3rd/pawfund/internal/http/campaign"
	checkoutHandler "github.com/MrJamesThe3rd/pawfund/internal/http/checkout"
	webhookHandler "github.com/MrJamesThe3rd/pawfund/internal/http/webhook"
	"github.com/MrJamesThe3rd/pawfund/internal/reconcile"
	"github.com/MrJamesThe3rd/pawfund/internal/webhook"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Stripe.WebhookSecret == "" || cfg.Auth.JWTSecret == "" {
		slog.Error("STRIPE_WEBHOOK_SECRET and JWT_SECRET are required")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rates, closeRates, err := rateSource(cfg)
	if err != nil {
		slog.Error("failed to configure exchange rates", "error", err)
		os.Exit(1)
	}
	defer closeRates()

	repo := campaignStore.New(db)

	var (
		campaignService = campaign.NewService(repo)
		exportService   = export.NewService(campaignService, cfg.FX.CampaignCurrency)
		issuer          = checkout.NewIssuer(
			campaignService,
			rates,
			gateway.NewStripe(cfg.Stripe.SecretKey, cfg.SuccessURL(), cfg.CancelURL(), nil),
			checkout.Config{
				CampaignCurrency:   cfg.FX.CampaignCurrency,
				SettlementCurrency: cfg.Stripe.SettlementCurrency,
				MinimumCharge:      cfg.Stripe.MinimumCharge,
			},
		)
		reconciler = reconcile.New(repo)
	)

	var (
		campaignH = campaignHandler.NewHandler(campaignService, exportService, cfg.FX.CampaignCurrency)
		checkoutH = checkoutHandler.NewHandler(issuer)
		webhookH  = webhookHandler.NewHandler(webhook.NewVerifier(cfg.Stripe.WebhookSecret), reconciler)
	)

	router := pawfundHttp.New(
		campaignH,
		checkoutH,
		webhookH,
		auth.NewMiddleware(cfg.Auth.JWTSecret).Handler,
		cfg.Server.AllowedOrigins,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to shut down server", "error", err)
		}
	}()

	slog.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// rateSource prefers a configured fixed rate and otherwise queries the rates
// API, cached in Redis when REDIS_ADDR is set.
func rateSource(cfg *config.Config) (fx.Source, func(), error) {
	noop := func() {}

	rate, fixed, err := cfg.FixedRate()
	if err != nil {
		return nil, noop, err
	}

	if fixed {
		slog.Info("using fixed exchange rate", "rate", rate)
		return fx.NewStatic(rate), noop, nil
	}

	var src fx.Source = fx.NewHTTPSource(cfg.FX.APIURL)

	if cfg.Redis.Addr == "" {
		return src, noop, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("redis unavailable, exchange rates will not be cached", "addr", cfg.Redis.Addr, "error", err)
		_ = rdb.Close()

		return src, noop, nil
	}

	return fx.NewCached(src, rdb, cfg.FX.CacheTTL), func() { _ = rdb.Close() }, nil
}
