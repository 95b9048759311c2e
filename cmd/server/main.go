package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyaltytree/config"
	"loyaltytree/internal/database"
	"loyaltytree/internal/router"
	"loyaltytree/pkg/imagestore"
)

func newImageStore(cfg *config.Config) imagestore.Store {
	if cfg.Cloudinary.Enabled() {
		store, err := imagestore.NewCloudinary(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret, cfg.Cloudinary.Folder)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
		log.Printf("[upload] storing images on Cloudinary (%s)", cfg.Cloudinary.CloudName)
		return store
	}
	store, err := imagestore.NewDisk(cfg.Upload.Dir, cfg.Upload.PublicBaseURL)
	if err != nil {
		log.Fatalf("upload dir: %v", err)
	}
	log.Printf("[upload] Cloudinary not configured, storing images under %s", cfg.Upload.Dir)
	return store
}

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if err := database.SeedAdmin(context.Background(), db, &cfg.Admin); err != nil {
		log.Printf("[seed] admin: %v", err)
	}

	app := router.Setup(cfg, db, newImageStore(cfg))
	defer app.Limiter.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go app.Redemptions.RunSweeper(ctx, cfg.Redemption.SweepInterval)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.WithCORS(app.Engine, cfg.CORS),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
		os.Exit(1)
	}
	log.Println("server stopped")
}
