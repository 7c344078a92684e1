package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/spf13/pflag"

	"skylt/internal/application/player"
	"skylt/internal/application/replica"
	"skylt/internal/config"
	"skylt/internal/infrastructure/filesystem"
	"skylt/internal/infrastructure/rsync"
	"skylt/internal/infrastructure/viewer"
	"skylt/internal/infrastructure/watcher"
	httptransport "skylt/internal/transport/http"
)

func main() {
	configPath := pflag.StringP("config", "C", "/boot/skylt.yaml", "configuration file to read")
	mediaDir := pflag.String("media", "", "media directory (overrides configuration)")
	listenAddr := pflag.String("listen", "", "admin listen address (overrides configuration)")
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config init failed: %v", err)
	}
	if *mediaDir != "" {
		cfg.MediaDir = *mediaDir
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	logBuffer := httptransport.NewLogBuffer(100)
	logger := log.New(io.MultiWriter(os.Stderr, logBuffer), "", log.LstdFlags)

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		log.Fatalf("media dir init failed: %v", err)
	}

	previousDir := filesystem.NewMediaDir(filepath.Join(cfg.MediaDir, "previous"), nil, logger)
	currentDir := filesystem.NewMediaDir(filepath.Join(cfg.MediaDir, "current"), previousDir, logger)
	dropDir := filesystem.NewMediaDir(cfg.MediaDir, nil, logger)
	logoDir := filesystem.NewMediaDir(filepath.Join(cfg.MediaDir, "logo"), nil, logger)

	factory := viewer.NewFactory(viewer.Options{
		PhotoSeconds: cfg.PhotoSeconds,
		SlideSeconds: cfg.SlideSeconds,
		KeepAwake:    cfg.KeepAwake,
	}, logger)

	hub := httptransport.NewHub(logger)

	transport := rsync.NewClient(cfg.SSHKey, cfg.SSHUser, logger)
	backoff := time.Duration(cfg.SyncRetrySeconds) * time.Second
	var syncers []player.ReplicaSyncer
	var closers []*replica.Syncer
	for _, host := range cfg.ReplicaHosts {
		syncer := replica.NewSyncer(host, currentDir.Path(), cfg.RemoteMediaDir, cfg.TriggerFile, transport, backoff, logger)
		syncers = append(syncers, syncer)
		closers = append(closers, syncer)
	}

	queue := player.NewQueue()
	supervisor := player.NewSupervisor(queue, dropDir, currentDir, logoDir, factory, hub, syncers, logger)

	monitor, err := watcher.NewMonitor(queue, cfg.MediaDir, cfg.TriggerFile, logger)
	if err != nil {
		log.Fatalf("change monitor init failed: %v", err)
	}

	// Termination signals follow the same single control path as an
	// operator-initiated quit.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for range signals {
			queue.Push(player.CmdQuit)
		}
	}()

	handler := httptransport.NewHandler(supervisor, hub, logBuffer, cfg.AdminUser, cfg.AdminPass)
	router := httptransport.NewRouter(handler)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	})
	server := &http.Server{Addr: cfg.ListenAddr, Handler: c.Handler(router)}
	go func() {
		logger.Printf("admin server started on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("admin server failed: %v", err)
		}
	}()

	if err := supervisor.Run(); err != nil {
		log.Fatalf("supervisor failed: %v", err)
	}

	_ = monitor.Close()
	for _, syncer := range closers {
		syncer.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
