package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kangminLeo/Ironbot/config"
	"github.com/kangminLeo/Ironbot/internal/gateway"
	"github.com/kangminLeo/Ironbot/internal/postgres"
	"github.com/kangminLeo/Ironbot/internal/service"
	httpx "github.com/kangminLeo/Ironbot/internal/transport/http"
	httpmw "github.com/kangminLeo/Ironbot/internal/transport/http/middleware"
	"github.com/kangminLeo/Ironbot/internal/transport/ws"
	"github.com/kangminLeo/Ironbot/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Service:          cfg.Logging.Service,
		Version:          cfg.Logging.Version,
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		AddSource:        cfg.Logging.AddSource,
		SampleInitial:    cfg.Logging.SampleInitial,
		SampleThereafter: cfg.Logging.SampleThereafter,
	})
	slog.Info("starting ironbot", "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, postgres.Config{
		DSN:             cfg.Postgres.DSN,
		ApplicationName: cfg.Logging.Service,
	})
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if err := postgres.InitSchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// --- repos ---
	accountRepo := postgres.NewAccountRepository(pool)
	activityRepo := postgres.NewActivityRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	shopRepo := postgres.NewShopRepository(pool)

	// --- gateway ---
	gw := gateway.NewClient(cfg.Gateway.BaseURL, cfg.Gateway.Token, cfg.GatewayCallTimeout())

	// --- services ---
	policy := service.Policy{
		BlockSeconds:   cfg.Points.BlockSeconds,
		PointsPerBlock: cfg.Points.PointsPerBlock,
	}
	notify := service.NewNotify(settingsRepo, gw, policy)
	ledger := service.NewLedger(accountRepo, policy)
	tracker := service.NewTracker(accountRepo, activityRepo, settingsRepo, notify, policy)
	shop := service.NewShop(shopRepo)
	groups := service.NewGroups(gw, service.GroupConfig{
		Size:              cfg.Groups.Size,
		TriggerName:       cfg.Groups.TriggerName,
		RoomNames:         cfg.Groups.RoomNames,
		Containers:        cfg.Groups.Containers,
		PrivateTriggers:   cfg.Groups.PrivateTriggers,
		PrivateNamePrefix: cfg.Groups.PrivateNamePrefix,
	})
	dispatcher := service.NewDispatcher(groups, tracker, accountRepo, activityRepo)

	guard := service.NewGuard(settingsRepo, activityRepo, gw, service.AFKPolicy{
		AFKSeconds:       cfg.Points.AFKSeconds,
		MuteGraceSeconds: cfg.Points.MuteGraceSeconds,
	})
	reconciler := service.NewReconciler(accountRepo, activityRepo, settingsRepo, gw, notify, policy)

	// --- feed & sweeps ---
	feed := ws.NewFeed(cfg.Gateway.FeedURL, cfg.Gateway.Token, dispatcher)
	go feed.Run(ctx)
	go guard.Run(ctx, cfg.AFKInterval())
	go reconciler.Run(ctx, cfg.ReconcileInterval())

	// --- HTTP ---
	handler := httpx.NewHandler(ledger, shop, settingsRepo)
	verifier := httpmw.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)
	router := httpx.NewRouter(handler, verifier)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
