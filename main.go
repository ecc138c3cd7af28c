package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"signal-core/internal/api"
	"signal-core/internal/conn"
	"signal-core/internal/events"
	"signal-core/internal/notify"
	"signal-core/internal/sim"
	"signal-core/internal/store"
	"signal-core/pkg/config"
)

var version = "v1.0-dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	log.WithFields(log.Fields{
		"feed":    cfg.FeedURL,
		"symbols": cfg.Symbols,
		"port":    cfg.Port,
	}).Info("starting signal core")

	profiles, err := cfg.Profiles()
	if err != nil {
		log.Fatalf("symbol profiles: %v", err)
	}

	bus := events.NewBus()
	st := store.New(bus, profiles)

	seed := cfg.SimSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prices := sim.NewPrices(seed, profiles)
	synth := sim.NewSynthesizer(seed+1, prices, profiles)

	manager := conn.NewManager(conn.Config{
		URL:             cfg.FeedURL,
		Symbols:         cfg.Symbols,
		SimSignalChance: cfg.SimSignalChance,
	}, st, bus, notify.LogSink{}, prices, synth)
	manager.Start()

	server := api.NewServer(bus, st, manager, api.SystemMeta{
		Symbols: cfg.Symbols,
		FeedURL: cfg.FeedURL,
		Version: version,
	})
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutting down")
	manager.Close()
}
