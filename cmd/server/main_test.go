package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	filestore "villagemap/internal/adapter/store/file"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"VILLAGEMAP_HTTP_ADDR", "VILLAGEMAP_TOWNS_DIR", "VILLAGEMAP_HOUSE_CLASSES_FILE", "VILLAGEMAP_DB_DSN",
		"VILLAGEMAP_SESSION_TTL_SECONDS", "VILLAGEMAP_USE_FOOTPRINTS", "VILLAGEMAP_WATCH_CATALOG",
	} {
		t.Setenv(key, "")
	}
	cfg := loadConfig()
	if cfg.HTTPAddr != ":8080" || cfg.TownsDir != "./towns" || cfg.HouseClassesFile != "./house_classes.json" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SessionTTL != 10*time.Minute {
		t.Fatalf("expected 10m session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.UseFootprints || !cfg.WatchCatalog {
		t.Fatalf("unexpected flags %+v", cfg)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("VILLAGEMAP_HTTP_ADDR", ":9090")
	t.Setenv("VILLAGEMAP_TOWNS_DIR", "/srv/towns")
	t.Setenv("VILLAGEMAP_SESSION_TTL_SECONDS", "30")
	t.Setenv("VILLAGEMAP_USE_FOOTPRINTS", "true")
	t.Setenv("VILLAGEMAP_WATCH_CATALOG", "0")

	cfg := loadConfig()
	if cfg.HTTPAddr != ":9090" || cfg.TownsDir != "/srv/towns" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SessionTTL != 30*time.Second || !cfg.UseFootprints || cfg.WatchCatalog {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("VILLAGEMAP_TEST_INT", "ten")
	t.Setenv("VILLAGEMAP_TEST_BOOL", "maybe")
	if got := intEnv("VILLAGEMAP_TEST_INT", 7); got != 7 {
		t.Fatalf("intEnv()=%d want 7", got)
	}
	if got := boolEnv("VILLAGEMAP_TEST_BOOL", true); !got {
		t.Fatalf("boolEnv() should fall back to true")
	}
}

func TestMustBuildStore_UsesFilesWithoutDSN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TownsDir = filepath.Join(t.TempDir(), "towns")
	store, tx := mustBuildStore(context.Background(), cfg)
	if _, ok := store.(filestore.TownStore); !ok {
		t.Fatalf("expected file store, got %T", store)
	}
	if _, ok := tx.(filestore.TxManager); !ok {
		t.Fatalf("expected file tx manager, got %T", tx)
	}
	names, err := store.List(context.Background())
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty town list, got %v err=%v", names, err)
	}
}
