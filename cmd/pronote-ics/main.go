package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iimraane/pronote-ics-sync/internal/config"
	"github.com/iimraane/pronote-ics-sync/internal/feed"
	appLog "github.com/iimraane/pronote-ics-sync/internal/log"
	"github.com/iimraane/pronote-ics-sync/internal/pronote"
	"github.com/iimraane/pronote-ics-sync/internal/timetable"
	"github.com/iimraane/pronote-ics-sync/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	verbose    bool
}

func main() {
	appLog.Info("pronote-ics starting", "version", "0.1.0")

	flags := parseFlags()

	// Credentials usually arrive via .env rather than the YAML config;
	// a missing .env file is fine.
	_ = godotenv.Load()

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		appLog.SetLevel(appLog.ParseLevel(v))
	}
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	conf.ApplyEnv()

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	if conf.Pronote.BridgeURL == "" || conf.Pronote.InstanceURL == "" ||
		conf.Pronote.Username == "" || conf.Pronote.Password == "" {
		appLog.Error("incomplete Pronote settings", errors.New("bridge_url, instance_url, username and password are required"),
			"config_path", flags.configPath)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("invalid timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"default_weeks", conf.DefaultWeeks,
		"cache_ttl_seconds", conf.CacheTTLSeconds,
		"ent", conf.Pronote.ENT,
	)

	source := pronote.NewClient(conf.Pronote.BridgeURL, pronote.Credentials{
		InstanceURL: conf.Pronote.InstanceURL,
		Username:    conf.Pronote.Username,
		Password:    conf.Pronote.Password,
		ENT:         conf.Pronote.ENT,
	})
	cache := timetable.NewCache(source, time.Duration(conf.CacheTTLSeconds)*time.Second)
	builder := feed.NewBuilder(loc)
	server := web.NewServer(conf, cache, builder, loc)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("serving calendar feed", "url", "http://"+conf.Listen+"/calendar.ics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err, "listen", conf.Listen)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			appLog.Error("graceful shutdown failed", err)
		}
	}

	appLog.Info("pronote-ics exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "pronote-ics.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
