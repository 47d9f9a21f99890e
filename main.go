package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/aliciaolivaresgil/sslearn/config"
	"github.com/aliciaolivaresgil/sslearn/db"
	sslhttp "github.com/aliciaolivaresgil/sslearn/http"
	"github.com/aliciaolivaresgil/sslearn/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 2. Initialize database
	if err := db.InitDB(cfg.Database.Path); err != nil {
		logger.Fatal("database init failed", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", cfg.Database.Path))

	// 3. Watch config for edits; only training knobs apply live
	go func() {
		err := config.Watch(*configPath, func(fresh *config.Config) {
			logger.Info("config reloaded",
				zap.String("algorithm", fresh.Training.Algorithm),
				zap.Int("max_iterations", fresh.Training.MaxIterations))
		})
		if err != nil {
			logger.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	// 4. Start HTTP server
	hub := sslhttp.NewHub(logger)
	api, err := sslhttp.NewAPI(logger, hub, cfg.Training.MaxTreeDepth)
	if err != nil {
		logger.Fatal("api init failed", zap.Error(err))
	}

	serverConfig := sslhttp.DefaultServerConfig()
	serverConfig.Port = cfg.Http.Port
	server := sslhttp.NewServer(serverConfig, api, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
}
