package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/bootstrap"
	"github.com/Domenick1991/seatledger/internal/email"
	"github.com/Domenick1991/seatledger/internal/kafka"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("init", "error", err)
	}
	defer app.Close()

	results := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup("payments"), cfg.Kafka.PaymentResultsTopic, log)
	defer results.Close()
	notifications := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup("notifications"), cfg.Kafka.NotificationsTopic, log)
	defer notifications.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return results.Consume(ctx, bootstrap.PaymentResults(app.Bookings, log))
	})
	g.Go(func() error {
		return notifications.Consume(ctx, bootstrap.Notifications(email.NewSender(log)))
	})
	g.Go(func() error {
		return bootstrap.Every(ctx, time.Duration(cfg.Worker.ExpirationSweepSeconds)*time.Second, "expire_reserved", log, app.Bookings.ExpireReserved)
	})
	g.Go(func() error {
		return bootstrap.Every(ctx, time.Duration(cfg.Worker.CompletionSweepMinutes)*time.Minute, "complete_departed", log, app.Bookings.CompleteDeparted)
	})
	g.Go(func() error {
		return bootstrap.Every(ctx, time.Duration(cfg.Worker.AuditSweepMinutes)*time.Minute, "inventory_audit", log, func(ctx context.Context) (int, error) {
			return bootstrap.AuditInventory(ctx, app.Store, app.Ledger, app.Metrics, log)
		})
	})

	log.Info("worker started")
	if err := g.Wait(); err != nil {
		log.Fatal("worker stopped", "error", err)
	}
	log.Info("worker stopped")
}
