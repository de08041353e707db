package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
	"github.com/camlink/camlink-go/internal/hostbus"
	"github.com/camlink/camlink-go/internal/infra/buildinfo"
	"github.com/camlink/camlink-go/internal/infra/confloader"
	"github.com/camlink/camlink-go/internal/infra/shutdown"
	"github.com/camlink/camlink-go/internal/server/advertise"
	"github.com/camlink/camlink-go/internal/server/config"
	"github.com/camlink/camlink-go/internal/server/httpserver"
	"github.com/camlink/camlink-go/internal/telemetry/logger"
	"github.com/camlink/camlink-go/internal/telemetry/metric"
)

const (
	shutdownTimeout = 10 * time.Second
	statsInterval   = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		watch       = flag.Bool("watch", false, "Reload log.level when the configuration file changes")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("camlink-server " + buildinfo.String())
		return nil
	}

	loader, cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting camlink-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile,
		"settings", config.Sanitize(cfg))

	registry := metric.NewRegistry()

	hub := hostbus.NewHub()
	bus := hostbus.Multi(hostbus.NewLogBus(slogLogger), hub)

	commands := hostbus.NewCommands()
	advertise.Register(commands)

	server := httpserver.New(bus, domain.StreamPort,
		httpserver.WithLogger(slogLogger),
		httpserver.WithMetrics(registry),
		httpserver.WithReadLimit(cfg.Stream.ReadLimit),
		httpserver.WithReadHeaderTimeout(cfg.Stream.ReadHeaderTimeout),
	)

	shutdownHandler := shutdown.NewHandler(shutdownTimeout, shutdown.WithLogger(slogLogger))

	// Hooks run in reverse order: the endpoint closes first so every
	// session emits client-disconnected before the hub goes away.
	shutdownHandler.OnShutdown("hub", func(context.Context) error {
		hub.Close()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go logFrameStats(ctx, hub, slogLogger)

	if cfg.Metrics.Enabled {
		metricsServer := httpserver.NewMetricsServer(cfg.Metrics.Addr, registry, server.ActiveSessions, slogLogger,
			httpserver.WithMetricsToken(cfg.Metrics.Token))
		shutdownHandler.OnShutdown("metrics", metricsServer.Shutdown)
		go func() {
			if err := metricsServer.Start(); err != nil {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	if *watch && *configFile != "" {
		watcher, err := startWatcher(loader, slogLogger)
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		shutdownHandler.OnShutdown("config-watcher", func(context.Context) error {
			return watcher.Stop()
		})
	}

	shutdownHandler.OnShutdown("endpoint", server.Shutdown)

	startErr := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			startErr <- err
			shutdownHandler.Trigger("endpoint failed")
		}
	}()

	select {
	case <-server.Ready():
		announce(ctx, server, commands, log)
	case err := <-startErr:
		return fmt.Errorf("start endpoint: %w", err)
	}

	if err := shutdownHandler.Wait(context.Background()); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	select {
	case err := <-startErr:
		return fmt.Errorf("endpoint: %w", err)
	default:
	}

	log.Info("server stopped gracefully")
	return nil
}

// announce logs what a user needs to connect a phone.
func announce(ctx context.Context, server *httpserver.Server, commands *hostbus.Commands, log logger.Logger) {
	url, err := commands.Invoke(ctx, domain.CommandGetStreamURL)
	if err != nil {
		log.Error("advertise url", "error", err)
		return
	}
	fingerprint, err := server.Identity().Fingerprint()
	if err != nil {
		log.Warn("certificate fingerprint unavailable", "error", err)
	}
	log.Info("open this URL on the phone and accept the certificate",
		"url", url,
		"sha256_fingerprint", fingerprint)
}

// loadConfig loads configuration from file and environment.
func loadConfig(configFile string) (*confloader.Loader, *config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	loader := confloader.NewLoader(opts...)

	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return loader, cfg, nil
}

// initLogger initializes the structured logger and installs it as default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	var out io.Writer = os.Stderr
	if cfg.Log.Output == "stdout" {
		out = os.Stdout
	}

	log, err := logger.New(logger.Config{
		Level:     cfg.Log.Level,
		Format:    cfg.Log.Format,
		Output:    out,
		AddSource: cfg.Log.AddSource,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

// startWatcher reapplies log.level whenever the config file changes.
// Other settings need a restart.
func startWatcher(loader *confloader.Loader, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(loader.FilePath()); err != nil {
		watcher.Stop()
		return nil, err
	}

	watcher.OnChange(func(path string) {
		next := config.Default()
		if err := loader.Reload(next); err != nil {
			log.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if err := config.Verify(next); err != nil {
			log.Warn("config reload rejected", "path", path, "error", err)
			return
		}
		if next.Log.Level != logger.GetLevel() {
			logger.SetLevel(next.Log.Level)
			log.Info("log level changed", "level", next.Log.Level)
		}
	})
	watcher.StartAsync()
	return watcher, nil
}

// logFrameStats periodically logs the frame rate seen on the hub.
func logFrameStats(ctx context.Context, hub *hostbus.Hub, log *slog.Logger) {
	frames, cancel := hub.Subscribe(domain.EventCameraFrame, hostbus.DefaultBuffer)
	defer cancel()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	var count int
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-frames:
			if !ok {
				return
			}
			count++
		case <-ticker.C:
			if count > 0 {
				log.Info("stream stats",
					"frames", count,
					"fps", float64(count)/statsInterval.Seconds(),
					"hub_dropped", hub.Dropped())
				count = 0
			}
		}
	}
}
