package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"NewsScanner/internal/app"
	"NewsScanner/internal/config"
	"NewsScanner/internal/logging"
)

func main() {
	var once bool
	flag.BoolVar(&once, "once", false, "Run the pipeline a single time and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		_, _ = os.Stderr.WriteString("load .env: " + err.Error() + "\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Fatal("application setup failed", zap.Error(err))
	}

	if once {
		report, err := application.RunOnce(ctx)
		if err != nil {
			logger.Error("run failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("run complete",
			zap.String("run_id", report.RunID),
			zap.Int("accepted", len(report.Accepted)))
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", zap.Error(err))
		os.Exit(1)
	}
}
