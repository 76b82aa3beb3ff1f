// Command tunedeckd is the tunedeck internet-radio playback daemon. It owns
// the single audio output, persists listening preferences and history, and
// serves the player API to LAN clients.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tunedeck/tunedeck-go/internal/api"
	"github.com/tunedeck/tunedeck-go/internal/auth"
	"github.com/tunedeck/tunedeck-go/internal/config"
	"github.com/tunedeck/tunedeck-go/internal/directory"
	"github.com/tunedeck/tunedeck-go/internal/engine"
	"github.com/tunedeck/tunedeck-go/internal/events"
	"github.com/tunedeck/tunedeck-go/internal/history"
	"github.com/tunedeck/tunedeck-go/internal/models"
	"github.com/tunedeck/tunedeck-go/internal/mpris"
	"github.com/tunedeck/tunedeck-go/internal/session"
	"github.com/tunedeck/tunedeck-go/internal/zeroconf"
)

const version = "0.1.0"

func main() {
	var (
		addr       = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir     = flag.String("config-dir", "", "config directory (default: ~/.config/tunedeck)")
		engineName = flag.String("engine", "beep", "audio engine: beep, vlc, or none")
		dirURL     = flag.String("directory-url", "", "station directory base URL (default: public directory)")
		noMPRIS    = flag.Bool("no-mpris", false, "skip MPRIS media-key registration")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "tunedeck")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Audio output
	var out engine.Output
	switch *engineName {
	case "beep":
		out = engine.NewBeep()
	case "vlc":
		out = engine.NewVLC()
	case "none":
		slog.Info("running without audio output")
		out = engine.NewMock()
	default:
		slog.Error("unknown engine", "engine", *engineName)
		os.Exit(1)
	}

	// Preference store and event bus
	store := config.NewJSONStore(*cfgDir)
	bus := events.NewBus()

	// Playback session
	sess, err := session.New(store, bus)
	if err != nil {
		slog.Error("session initialization failed", "err", err)
		os.Exit(1)
	}

	// Engine binding: the one goroutine allowed to touch the output
	binding := session.NewBinding(sess, out)
	go binding.Run(ctx)

	// Listening history
	db, err := history.OpenDB(*cfgDir)
	if err != nil {
		slog.Error("history database initialization failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	repo := history.NewRepo(db)

	recorderID := "history-" + uuid.New().String()
	go history.NewRecorder(repo).Run(ctx, bus.Subscribe(recorderID))
	defer bus.Unsubscribe(recorderID)

	// MPRIS media keys (best effort; headless installs have no session bus)
	if !*noMPRIS {
		if bridge, err := mpris.New(sess); err != nil {
			slog.Warn("mpris unavailable", "err", err)
		} else {
			mprisID := "mpris-" + uuid.New().String()
			go bridge.Run(ctx, bus.Subscribe(mprisID))
			defer bus.Unsubscribe(mprisID)
			defer bridge.Close()
		}
	}

	// Auth service
	authSvc, err := auth.NewService(*cfgDir)
	if err != nil {
		slog.Error("auth service initialization failed", "err", err)
		os.Exit(1)
	}
	defer authSvc.Close()

	// Zeroconf mDNS registration
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "tunedeck"
	}
	port := 8080
	if parts := strings.SplitN(*addr, ":", 2); len(parts) == 2 && parts[1] != "" {
		if p, err := strconv.Atoi(parts[1]); err == nil {
			port = p
		}
	}
	zc := zeroconf.New(hostname, port, version)
	go func() {
		if err := zc.Start(ctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
	}()

	// HTTP server
	info := models.Info{Version: version, Engine: *engineName}
	router := api.NewRouter(sess, directory.NewClient(*dirURL), repo, authSvc, bus, info)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE and websockets)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("tunedeck listening", "addr", *addr, "engine", *engineName, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Release the audio output
	if err := out.Close(); err != nil {
		slog.Warn("engine shutdown error", "err", err)
	}

	// Flush pending preference writes
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush preferences", "err", err)
	}

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	slog.Info("shutdown complete")
}
