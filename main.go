package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rizqinugroho/equipcheck/audit"
	"github.com/rizqinugroho/equipcheck/config"
	"github.com/rizqinugroho/equipcheck/logger"
	"github.com/rizqinugroho/equipcheck/report"
	"github.com/rizqinugroho/equipcheck/repository"
	"github.com/rizqinugroho/equipcheck/server"
	service_registry "github.com/rizqinugroho/equipcheck/srvreg"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "", "Path to the config file (optional)")
}

func main() {
	// Load Config
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}

	appLogger := logger.New(os.Stdout, cfg.Debug)

	// Connect the embedded record database
	repo := repository.NewRepository(appLogger)
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		log.Fatalf("Creating data directory: %v", err)
	}
	if err := repo.ConnectDB(cfg.DatabasePath); err != nil {
		log.Fatalf("Connecting database: %v", err)
	}
	if err := repo.Migrate(); err != nil {
		log.Fatalf("Migrating database: %v", err)
	}
	if err := repo.SeedAdmin(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminFullName); err != nil {
		log.Fatalf("Seeding admin account: %v", err)
	}
	if len(cfg.DetailedAreas) > 0 {
		repo.SetDetailedAreas(cfg.DetailedAreas)
	}

	// Initialize audit journal
	journal, err := audit.Open(cfg.AuditDir)
	if err != nil {
		log.Fatalf("Opening audit journal: %v", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			appLogger.Error("Closing audit journal", "err", err)
		}
	}()
	repo.SetJournal(journal)

	// Initialize Service Registry
	serviceRegistry := service_registry.NewServiceRegistry(repo, appLogger)
	serviceRegistry.RegisterDefaultServices()

	// Start Web Server
	webserver := server.NewWebServer(cfg.HTTPPort, appLogger, serviceRegistry, repo, report.NewRenderer())
	if err := webserver.Start(); err != nil {
		log.Fatalf("Starting HTTP server: %v", err)
	}

	// Wait for interrupt signal to gracefully shut down the server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	// Create deadline to wait for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := webserver.Shutdown(ctx); err != nil {
		appLogger.Error("Shutting down HTTP web server", "err", err)
	}
	appLogger.Info("HTTP web server gracefully stopped")
}
