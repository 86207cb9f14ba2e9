/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mikeb26/tkdrank/compsync"
	"github.com/mikeb26/tkdrank/internal/config"
	"github.com/mikeb26/tkdrank/internal/metrics"
	"github.com/mikeb26/tkdrank/server"
	"github.com/mikeb26/tkdrank/store"
	"github.com/mikeb26/tkdrank/wtrank"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("tkdserver.main: failed to load config: %v", err)
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("tkdserver.main: %v", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := cfg.SimplyCompete(ctx)
	if err != nil {
		log.Fatalf("tkdserver.main: %v", err)
	}
	divisions, err := cfg.Divisions()
	if err != nil {
		log.Fatalf("tkdserver.main: %v", err)
	}

	m := metrics.New()
	syncer := compsync.New(client, st, clockwork.NewRealClock(),
		compsync.WithMetrics(m),
		compsync.WithRankings(wtrank.NewClient(cfg.HTTPClient(ctx)), divisions))

	if cfg.SyncInterval > 0 {
		go syncer.Run(ctx, cfg.SyncInterval)
	}

	srv := server.New(cfg.Port, st, syncer, m)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("tkdserver.main: %v", err)
	}
	log.Printf("tkdserver.main: exiting")
}
