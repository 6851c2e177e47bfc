package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/marmos91/dittocat/internal/logger"
	"github.com/marmos91/dittocat/pkg/api"
	"github.com/marmos91/dittocat/pkg/config"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DittoCat server",
	Long: `Start the DittoCat HTTP server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/dittocat/config.yaml.

Examples:
  # Start with the default config file
  dittocat start

  # Start with custom config file
  dittocat start --config /etc/dittocat/config.yaml

  # Start with environment variable overrides
  DITTOCAT_LOGGING_LEVEL=DEBUG DITTOCAT_CATALOG_TYPE=badger dittocat start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("DittoCat %s starting", Version)
	logger.Info("Log level: %s, format: %s", cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", getConfigSource(GetConfigFile()))

	metricsResult := config.InitializeMetrics(cfg)

	s, backend, err := config.InitializeStore(ctx, cfg, metricsResult.StoreMetrics)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Failed to close catalog backend: %v", err)
		}
	}()

	logger.Info("Storage root: %s, catalog backend: %s", cfg.Storage.Root, cfg.Catalog.Type)

	apiServer := api.NewServer(api.APIConfig{
		ListenAddress:   cfg.Server.ListenAddress,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		RequestTimeout:  cfg.Server.RequestTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxUploadBytes:  api.UploadBodyLimit(cfg.Limits.MaxFilesPerUpload, cfg.Limits.MaxFileSize),
	}, s, metricsResult.HTTPMetrics)

	// Both servers stop when ctx is cancelled; the first failure cancels the other.
	var wg sync.WaitGroup
	serverDone := make(chan error, 2)
	run := func(name string, serve func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serve(ctx); err != nil {
				serverDone <- fmt.Errorf("%s: %w", name, err)
			}
		}()
	}

	run("api server", apiServer.Start)
	if metricsResult.Server != nil {
		logger.Info("Metrics enabled on port %d", cfg.Metrics.Port)
		run("metrics server", metricsResult.Server.Start)
	} else {
		logger.Info("Metrics collection disabled")
	}

	allStopped := make(chan struct{})
	go func() {
		wg.Wait()
		close(allStopped)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	var runErr error
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case runErr = <-serverDone:
		logger.Error("Server error: %v", runErr)
	case <-allStopped:
	}

	cancel()
	<-allStopped

	select {
	case err := <-serverDone:
		if runErr == nil {
			runErr = err
		}
	default:
	}

	if runErr != nil {
		return runErr
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
