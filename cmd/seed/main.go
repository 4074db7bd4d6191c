package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/meur/equicenter/internal/logger"
	"github.com/meur/equicenter/internal/models"
	"github.com/meur/equicenter/internal/storage"
)

func main() {
	dbPath := flag.String("db", "./equicenter.db", "SQLite database path")
	seedPath := flag.String("images", "./seeds/site_images.json", "Site images seed file")
	dryRun := flag.Bool("dry-run", false, "Print summary without writing to the database")
	flag.Parse()

	log := logger.NewLogger(logger.DefaultConfig())

	images, err := readSeed(*seedPath)
	if err != nil {
		log.Error("failed to read seed", "path", *seedPath, "error", err)
		os.Exit(1)
	}
	log.Info("loaded site images", "count", len(images), "path", *seedPath)

	if *dryRun {
		for _, img := range images {
			fmt.Printf("%-20s %s\n", img.Key, img.URL)
		}
		return
	}

	store, err := storage.New(*dbPath)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.BulkUpsertSiteImages(context.Background(), images); err != nil {
		log.Error("failed to seed site images", "error", err)
		os.Exit(1)
	}

	log.Info("seeding complete", "images", len(images))
}

// readSeed accepts either a list of images or a key -> url object.
func readSeed(path string) ([]models.SiteImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var list []models.SiteImage
	if err := json.Unmarshal(data, &list); err != nil {
		var byKey map[string]string
		if err2 := json.Unmarshal(data, &byKey); err2 != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		for k, u := range byKey {
			list = append(list, models.SiteImage{Key: k, URL: u})
		}
	}

	out := list[:0]
	for _, img := range list {
		img.Key = strings.TrimSpace(img.Key)
		if img.Key == "" || img.URL == "" {
			continue
		}
		out = append(out, img)
	}
	return out, nil
}
