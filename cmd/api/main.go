package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"mandil-capture-api/internal/cache"
	"mandil-capture-api/internal/config"
	"mandil-capture-api/internal/gateway"
	"mandil-capture-api/internal/handler"
	"mandil-capture-api/internal/repository"
	"mandil-capture-api/internal/router"
	"mandil-capture-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting mandil capture API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize the local store based on config
	var store repository.Store
	switch cfg.Store.Type {
	case "mysql":
		mysqlStore, err := repository.NewMySQLStore(cfg.Store.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL store: %v", err)
		}
		store = mysqlStore
		log.Println("MySQL store initialized")
	default: // sqlite
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				log.Fatalf("Failed to create data directory: %v", err)
			}
		}
		sqliteStore, err := repository.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite store: %v", err)
		}
		store = sqliteStore
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	// Initialize the operator-lookup cache (optional)
	var lookupCache cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis cache unavailable, falling back to memory: %v", err)
			lookupCache = cache.NewMemoryCache()
		} else {
			defer redisCache.Close()
			lookupCache = redisCache
			log.Println("Redis lookup cache initialized")
		}
	default:
		lookupCache = cache.NewMemoryCache()
		log.Println("Memory lookup cache initialized")
	}

	// Remote gateway
	gw := gateway.NewClient(cfg.Remote.BaseURL, cfg.Remote.Timeout)
	log.Printf("Remote gateway: %s (timeout %v)", cfg.Remote.BaseURL, cfg.Remote.Timeout)

	// Initialize services
	syncService := service.NewSyncService(store.Deliveries(), gw)
	operatorSyncService := service.NewOperatorSyncService(gw, store.Operators(), lookupCache)
	deliveryService := service.NewDeliveryService(
		store.Deliveries(), store.Operators(), store.Preferences(),
		syncService, lookupCache, cfg.Cache.TTL,
	)

	// Background sync worker drains sweeps queued by the save path
	syncService.Start()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	deliveryHandler := handler.NewDeliveryHandler(deliveryService)
	syncHandler := handler.NewSyncHandler(syncService, operatorSyncService)
	operatorHandler := handler.NewOperatorHandler(deliveryService)

	// Create router
	r := router.New(router.Config{
		Handler:         healthHandler,
		DeliveryHandler: deliveryHandler,
		SyncHandler:     syncHandler,
		OperatorHandler: operatorHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop the sync worker first so no sweep writes race the close
	syncService.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
