package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/migrations"
	"github.com/Domenick1991/seatledger/pkg/logger"
)

func main() {
	seed := flag.Bool("seed", false, "register a demo aircraft with its seat catalog")
	registration := flag.String("registration", "EI-SLA", "registration of the demo aircraft")
	flag.Parse()

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

	db, err := migrations.Open(cfg.Database, cfg.Log.Level == "debug")
	if err != nil {
		log.Fatal("open database", "error", err)
	}

	if err := migrations.Migrate(ctx, db); err != nil {
		log.Fatal("migrate", "error", err)
	}
	log.Info("schema up to date")

	if !*seed {
		return
	}
	id, err := migrations.Seed(ctx, db, *registration, "A320-200", map[domain.TravelClass]int{
		domain.TravelClassFirst:    6,
		domain.TravelClassBusiness: 24,
		domain.TravelClassEconomy:  150,
	})
	if err != nil {
		log.Fatal("seed", "error", err)
	}
	log.Info("aircraft ready", "registration", *registration, "aircraft_id", id)
}
