package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ncgordeev/phone-shop/app/orders"
	"github.com/ncgordeev/phone-shop/config"
	"github.com/ncgordeev/phone-shop/database"
	"github.com/ncgordeev/phone-shop/media"
	"github.com/ncgordeev/phone-shop/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing the database connection: %v", err)
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	var (
		store     media.Storage
		mediaRoot string
		mediaPath string
	)
	switch cfg.MediaBackend {
	case "gcs":
		gcs, err := media.NewGCSStorage(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatalf("Failed to open media bucket: %v", err)
		}
		defer gcs.Close()
		store = gcs
	default:
		store = media.NewLocalStorage(cfg.MediaRoot, cfg.MediaURL)
		mediaRoot = cfg.MediaRoot
		if p, ok := mediaPrefix(cfg.MediaURL); ok {
			mediaPath = p
		} else {
			log.Printf("MEDIA_URL %s is not a local path; media files are not served", cfg.MediaURL)
		}
	}

	if cfg.OrderExpiry > 0 {
		go orders.RunExpiry(ctx, models.NewOrdersRepository(db), cfg.OrderExpiry, cfg.OrderExpiryInterval)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newMux(db, store, mediaRoot, mediaPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Server is listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
