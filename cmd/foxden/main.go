package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"foxden/config"
	"foxden/internal/bridge"
	"foxden/internal/managers"
	"foxden/internal/state"
	"foxden/internal/storage"
	"foxden/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(log)
	defer func() { _ = log.Logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Errorf("opening persistence backend: %v", err)
		os.Exit(1)
	}
	defer func() { _ = backend.Close() }()
	log.Infof("using %s persistence backend", backend.Name())

	store := state.New(backend, cfg.StateKey, log)
	store.Init(ctx)

	mgr := bridge.Managers{
		Den:      managers.NewDenManager(store, log),
		Channel:  managers.NewChannelManager(store, log),
		Chat:     managers.NewChatManager(store, log),
		Voice:    managers.NewVoiceManager(store, log),
		User:     managers.NewUserManager(store, log),
		Settings: managers.NewSettingsManager(store, log),
	}

	hub := bridge.NewHub(log)
	go hub.Run(ctx)

	server := bridge.NewServer(store, mgr, hub, cfg.AppMode, log)
	if err := server.Run(ctx, cfg.BridgeAddr); err != nil {
		log.Errorf("bridge server: %v", err)
	}

	// Drain any scheduled snapshot write before the backend goes away.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Flush(flushCtx); err != nil {
		log.Errorf("flushing state on shutdown: %v", err)
	}
	store.Close()
}
