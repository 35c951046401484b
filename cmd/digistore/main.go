package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/talkincode/digistore/config"
	"github.com/talkincode/digistore/internal/app"
	"github.com/talkincode/digistore/internal/checkout"
	"github.com/talkincode/digistore/internal/fileprobe"
	"github.com/talkincode/digistore/internal/fulfillment"
	"github.com/talkincode/digistore/internal/mailer"
	"github.com/talkincode/digistore/internal/payment"
	"github.com/talkincode/digistore/internal/store"
	"github.com/talkincode/digistore/internal/webserver"
)

var (
	showHelp bool
	conffile string
	initdb   bool
)

func init() {
	flag.BoolVar(&showHelp, "h", false, "show help")
	flag.StringVar(&conffile, "c", "digistore.yml", "config file path")
	flag.BoolVar(&initdb, "initdb", false, "drop and recreate all tables, then exit")
}

func main() {
	flag.Parse()
	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	cfg := config.LoadConfig(conffile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if initdb {
		application.InitDb()
		zap.L().Info("database initialized")
		return
	}

	gateway := payment.NewStripeGateway(cfg.Stripe.ApiKey, cfg.Stripe.WebhookSecret)
	products := store.NewGormProductRepository(application.DB())
	orders := store.NewGormOrderRepository(application.DB())
	events := store.NewGormWebhookEventRepository(application.DB())
	prober := fileprobe.NewHTTPProber(time.Duration(cfg.Checkout.ProbeTimeout) * time.Second)

	checkoutSvc := checkout.NewService(products, gateway, prober, cfg.Stripe)
	sender := mailer.NewSmtpSender(cfg.Smtp)
	recon := fulfillment.NewReconciler(products, orders, sender, application.Bus(), cfg.Checkout.FallbackEmail)
	if err := fulfillment.RegisterAuditHooks(application.Bus(), application.DB()); err != nil {
		zap.L().Warn("failed to register audit hooks", zap.Error(err))
	}

	srv := webserver.NewServer(application, checkoutSvc, gateway, recon, events, application.RateLimiter())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	application.StartBackgroundJobs(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().Fatal("server exited", zap.Error(err))
	}
}
