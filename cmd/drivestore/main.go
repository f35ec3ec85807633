package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/logger"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/internal/server"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/auth"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/config"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/files"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/share"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	flag.Parse()

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration (file + DRIVESTORE_* environment + defaults)
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure logger
	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure log output: %v", err)
	}

	fmt.Println("drivestore - file storage and sharing API")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Authentication is mandatory; there is no anonymous mode
	if cfg.Auth.JWKSURL == "" {
		log.Fatalf("auth.jwks_url is required (set DRIVESTORE_AUTH_JWKS_URL or the config file)")
	}

	verifier, err := auth.NewJWKSVerifier(ctx, auth.JWKSVerifierConfig{
		JWKSURL: cfg.Auth.JWKSURL,
		Issuer:  cfg.Auth.Issuer,
		Leeway:  cfg.Auth.Leeway,
	})
	if err != nil {
		log.Fatalf("Failed to set up token verification: %v", err)
	}

	// Create stores from configuration
	meta, err := config.CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		log.Fatalf("Failed to create metadata store: %v", err)
	}
	defer func() {
		if err := meta.Close(); err != nil {
			logger.Error("Failed to close metadata store: %v", err)
		}
	}()

	blobs, err := config.CreateBlobStore(ctx, &cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}

	logger.Info("Metadata store: %s", cfg.Metadata.Type)
	logger.Info("Blob store: %s", cfg.Blob.Type)

	// Wire the domain services
	filesService := files.NewService(files.ServiceConfig{
		Meta:           meta,
		Blobs:          blobs,
		MaxUploadBytes: cfg.Upload.MaxSizeBytes,
	})
	shareEngine := share.NewEngine(share.EngineConfig{
		Meta:  meta,
		Blobs: blobs,
	})

	srv := server.New(server.Config{
		ListenAddress:   cfg.Server.ListenAddress,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RedeemRateLimit: cfg.Server.RedeemRateLimit,
		RedeemRateBurst: cfg.Server.RedeemRateBurst,
		Files:           filesService,
		Shares:          shareEngine,
		Verifier:        verifier,
	})

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s. Press Ctrl+C to stop.", cfg.Server.ListenAddress)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel() // Cancel context to initiate shutdown

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil && err != context.Canceled {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil && err != context.Canceled {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}
