package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/repcoach/internal/config"
	"github.com/claude/repcoach/internal/cue"
	"github.com/claude/repcoach/internal/feedback"
	"github.com/claude/repcoach/internal/server"
	"github.com/claude/repcoach/internal/session"
	"github.com/claude/repcoach/internal/speech"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("RepCoach starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// External capabilities: both optional, both degrade to local behavior.
	var feedbackSource cue.Source
	if cfg.Feedback.Enabled {
		feedbackSource = feedback.NewClient(cfg.Feedback.URL, cfg.Feedback.Timeout())
		log.Info("remote feedback enabled", "url", cfg.Feedback.URL, "timeout", cfg.Feedback.Timeout().String())
	}

	var speaker speech.Speaker = speech.NewLocal(log)
	if cfg.Speech.Enabled {
		speaker = speech.NewClient(cfg.Speech.URL, 5*time.Second, speaker, log)
		log.Info("remote speech enabled", "url", cfg.Speech.URL)
	}

	registry := session.NewRegistry(session.Options{
		Feedback: feedbackSource,
		Speaker:  speaker,
		Log:      log,
	}, log)

	srv := server.New(registry, cfg.Auth.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	// Seal open sessions so their aggregates are final before exit.
	for _, sum := range registry.List() {
		if sum.Finalized {
			continue
		}
		if s, ok := registry.Get(sum.ID); ok {
			s.Finalize()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
