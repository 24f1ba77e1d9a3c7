// Command storage-init creates the Azure table used by the tables backend.
package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"prism-todo/config"
	"prism-todo/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.Backend != config.BackendTables {
		log.WithField("backend", cfg.Backend).Info("nothing to initialise")
		return
	}
	log.WithField("table", cfg.Table).Info("storage init starting")

	tb, err := storage.NewTableBackend(cfg.StorageConnection, cfg.Table, cfg.Partition, nil)
	if err != nil {
		log.Fatalf("table client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := tb.EnsureTable(ctx); err != nil {
		log.Fatalf("create table: %v", err)
	}

	log.Info("storage init complete")
}
