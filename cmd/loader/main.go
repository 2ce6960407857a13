package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mkorchagin/dishchat/internal/config"
	"github.com/mkorchagin/dishchat/internal/core/domain"
	"github.com/mkorchagin/dishchat/internal/infrastructure/queue/nats"
	"github.com/mkorchagin/dishchat/internal/observability/logging"
)

// loader reads a catalog file and publishes every item onto the ingest
// subject. The worker picks items up from there and indexes them.
func main() {
	var catalogPath string
	flag.StringVar(&catalogPath, "file", "./data/food_items.json", "path to the catalog JSON file")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.New("loader", cfg.LogLevel))

	if err := run(cfg, catalogPath); err != nil {
		slog.Error("loader_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, catalogPath string) error {
	items, err := readCatalog(catalogPath)
	if err != nil {
		return err
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return fmt.Errorf("init item queue: %w", err)
	}
	defer queue.Close()

	ctx := context.Background()
	source := filepath.Base(catalogPath)
	published := 0
	for _, item := range items {
		if item.Source == "" {
			item.Source = source
		}
		if err := queue.PublishItem(ctx, item); err != nil {
			return fmt.Errorf("publish item %q: %w", item.Name, err)
		}
		published++
	}

	slog.Info("catalog_published", "items", published, "subject", cfg.NATSSubject)
	return nil
}

func readCatalog(path string) ([]domain.FoodItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var items []domain.FoodItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("catalog %s holds no items", path)
	}
	return items, nil
}
