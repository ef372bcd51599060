// Command relay levanta el relay de credenciales DoorDash + Stripe.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/dashpay-relay/internal/app"
	"github.com/dropDatabas3/dashpay-relay/internal/config"
	"github.com/dropDatabas3/dashpay-relay/internal/observability/logger"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// el .env es opcional: en contenedores todo viene del entorno
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.L().Fatal("config load failed", logger.Err(err))
	}

	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "dashpay-relay"})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	if envErr != nil {
		log.Warn("no env file loaded, using process environment", logger.File(envFile), logger.Err(envErr))
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Error("startup failed", logger.Err(err))
		_ = logger.Sync()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Error("relay stopped with error", logger.Err(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
	log.Info("relay stopped")
}
