package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daemonp/alula2mqtt/internal/alula"
	"github.com/daemonp/alula2mqtt/internal/cache"
	"github.com/daemonp/alula2mqtt/internal/config"
	"github.com/daemonp/alula2mqtt/internal/homeassistant"
	"github.com/daemonp/alula2mqtt/internal/log"
	"github.com/daemonp/alula2mqtt/internal/metrics"
	"github.com/daemonp/alula2mqtt/internal/mqtt"
	"github.com/daemonp/alula2mqtt/internal/poller"
)

func main() {
	configFile := flag.String("config", "config.yml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	logger := log.NewLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load cache if enabled
	var cached *cache.Data
	if cfg.Cache {
		cached, err = cache.Load()
		if err != nil {
			logger.Warning("Failed to load cache: %v", err)
		} else if cached != nil {
			logger.Info("Loaded data from cache")
		}
	}

	// Prefer a cached refresh token over the configured one: the vendor
	// rotates tokens, so the cached one is the most recent.
	refreshToken := cfg.Alula.RefreshToken
	if cached != nil && cached.RefreshToken != "" {
		refreshToken = cached.RefreshToken
	}

	// Create API client and establish a session
	client := alula.NewClient(cfg.Alula.APIURL, logger)
	client.SetCredentials(cfg.Alula.Username, cfg.Alula.Password)

	if refreshToken != "" {
		client.RestoreTokens(refreshToken)
		if err := client.Refresh(ctx); err != nil {
			logger.Debug("Token refresh failed, re-authenticating: %v", err)
			if err := client.Login(ctx, cfg.Alula.Username, cfg.Alula.Password); err != nil {
				logger.Error("Failed to log in to Alula API: %v", err)
				os.Exit(1)
			}
		}
	} else {
		if err := client.Login(ctx, cfg.Alula.Username, cfg.Alula.Password); err != nil {
			logger.Error("Failed to log in to Alula API: %v", err)
			os.Exit(1)
		}
	}
	logger.Info("Connected to Alula API")

	// Start metrics listener if enabled
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		go func() {
			if err := m.Serve(cfg.Metrics.Listen); err != nil {
				logger.Error("Metrics listener failed: %v", err)
			}
		}()
		logger.Info("Metrics listening on %s", cfg.Metrics.Listen)
	}

	// Create poller
	p := poller.NewPoller(&cfg.Alula, client, logger, m)
	p.NotePersistedToken(refreshToken)
	if cached != nil && len(cached.Zones) > 0 {
		p.SeedRegistry(cached.Zones)
		logger.Info("Restored zone registry for %d panels from cache", len(cached.Zones))
	}

	saveCache := func() {
		if !cfg.Cache {
			return
		}
		data := &cache.Data{
			RefreshToken: client.RefreshToken(),
			Zones:        p.RegistryExport(),
		}
		if err := cache.Save(data); err != nil {
			logger.Warning("Failed to save cache: %v", err)
		}
	}
	p.OnTokenRotated(func(string) { saveCache() })

	// Create MQTT client
	mqttClient := mqtt.NewMQTT(&cfg.MQTT, p, logger)
	if err := mqttClient.Connect(); err != nil {
		logger.Error("Failed to connect to MQTT broker: %v", err)
		os.Exit(1)
	}

	// Home Assistant discovery if enabled
	if cfg.HomeAssistant.Discovery {
		ha := homeassistant.New(&cfg.HomeAssistant, mqttClient, p, logger)
		ha.Start()
	}

	// Start polling
	go p.Run(ctx)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down...")
	cancel()
	saveCache()
	mqttClient.Close()
}
