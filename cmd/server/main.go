// Command server runs the HoverSpeak demo site.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/hoverspeak/internal/config"
	"github.com/sakif/hoverspeak/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	if cfg.GeneratedSecret {
		logger.Warn("SESSION_SECRET not set, using a random one; sessions end on restart")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
