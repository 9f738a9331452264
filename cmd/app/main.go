package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/bootstrap"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/gin-gonic/gin"
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

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("init", "error", err)
	}
	defer app.Close()

	if err := app.Producer.CheckConnection(ctx); err != nil {
		log.Warn("kafka unreachable", "error", err)
	}

	if err := bootstrap.Run(ctx, cfg.HTTP, app.Router(), log); err != nil {
		log.Error("server error", "error", err)
	}
}
