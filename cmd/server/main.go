package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/24f2006233/vyappar-smart/internal/adapter/handler"
	"github.com/24f2006233/vyappar-smart/internal/adapter/messaging"
	"github.com/24f2006233/vyappar-smart/internal/adapter/storage"
	"github.com/24f2006233/vyappar-smart/internal/config"
	"github.com/24f2006233/vyappar-smart/internal/core/service"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithLogger(ctx, log)

	// Initialize store
	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open store", "backend", cfg.StoreBackend, "error", err)
	}
	log.Infow("store ready", "backend", cfg.StoreBackend)

	collections := storage.NewCollections(kv, cfg.StoreKeyPrefix)

	// Initialize services
	opts := []service.Option{service.WithLocation(cfg.Location)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, service.WithPublisher(publisher))
		log.Infow("publishing invoice events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	inventoryService := service.NewInventoryService(collections, opts...)
	invoiceService := service.NewInvoiceService(collections, inventoryService, opts...)
	analyticsService := service.NewAnalyticsService(inventoryService, invoiceService, opts...)

	// Initialize gRPC health server
	grpcServer := grpc.NewServer()
	healthHandler := handler.NewGRPCHealthHandler(kv, log.WithComponent("grpc-health"))
	healthHandler.Register(grpcServer)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		healthHandler.Run(ctx, cfg.HealthInterval)
	}()

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalw("failed to listen", "port", cfg.GRPCPort, "error", err)
	}

	go func() {
		log.Infow("gRPC server listening", "port", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Errorw("gRPC server error", "error", err)
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(inventoryService, invoiceService, analyticsService, kv, log.WithComponent("http"))
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: httpHandler.Router(),
	}

	go func() {
		log.Infow("HTTP server listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorw("HTTP server error", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("HTTP shutdown", "error", err)
	}
	log.Info("HTTP server stopped")

	healthHandler.Shutdown()
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	cancel()
	wg.Wait()

	if err := kv.Close(); err != nil {
		log.Warnw("close store", "error", err)
	}
	log.Info("store closed")
}
