package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"memory-beads-be/internal/bootstrap"
	"memory-beads-be/internal/config"
	"memory-beads-be/internal/server"
	"memory-beads-be/internal/tracer"
	"memory-beads-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Initialize Tracer
	cfg := config.Load()
	shutdownTracer := tracer.Init(cfg.Telemetry)
	defer shutdownTracer(context.Background())

	if cfg.Auth.JwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Database
	var gormDB *gorm.DB
	if !cfg.UsesMemoryStorage() {
		var err error
		gormDB, err = database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
	}

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(ctx, gormDB, cfg)
	defer container.Close()

	// 3. Start Background Services
	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Question consumer failed to start: %v", err)
	}
	if err := container.ActivityService.Start(ctx); err != nil {
		log.Printf("[WARN] Activity feed disabled: %v", err)
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
