package main

import (
	"context"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	catalogadapter "villagemap/internal/adapter/catalog"
	httpadapter "villagemap/internal/adapter/http"
	metricsinmem "villagemap/internal/adapter/metrics/inmemory"
	gormrepo "villagemap/internal/adapter/repo/gorm"
	filestore "villagemap/internal/adapter/store/file"
	"villagemap/internal/app/editor"
	"villagemap/internal/app/layout"
	"villagemap/internal/app/ports"

	"github.com/cloudwego/hertz/pkg/app/server"
)

type Config struct {
	HTTPAddr         string
	TownsDir         string
	HouseClassesFile string
	DBDSN            string
	MigrationsDir    string
	SessionTTL       time.Duration
	SweepInterval    time.Duration
	UseFootprints    bool
	WatchCatalog     bool
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:         ":8080",
		TownsDir:         "./towns",
		HouseClassesFile: "./house_classes.json",
		SessionTTL:       editor.DefaultSessionTTL,
		SweepInterval:    time.Minute,
		WatchCatalog:     true,
	}
}

func loadConfig() Config {
	cfg := DefaultConfig()
	cfg.HTTPAddr = stringEnv("VILLAGEMAP_HTTP_ADDR", cfg.HTTPAddr)
	cfg.TownsDir = stringEnv("VILLAGEMAP_TOWNS_DIR", cfg.TownsDir)
	cfg.HouseClassesFile = stringEnv("VILLAGEMAP_HOUSE_CLASSES_FILE", cfg.HouseClassesFile)
	cfg.DBDSN = stringEnv("VILLAGEMAP_DB_DSN", "")
	cfg.MigrationsDir = stringEnv("VILLAGEMAP_MIGRATIONS_DIR", "")
	cfg.SessionTTL = time.Duration(intEnv("VILLAGEMAP_SESSION_TTL_SECONDS", int(cfg.SessionTTL.Seconds()))) * time.Second
	cfg.SweepInterval = time.Duration(intEnv("VILLAGEMAP_SESSION_SWEEP_SECONDS", int(cfg.SweepInterval.Seconds()))) * time.Second
	cfg.UseFootprints = boolEnv("VILLAGEMAP_USE_FOOTPRINTS", cfg.UseFootprints)
	cfg.WatchCatalog = boolEnv("VILLAGEMAP_WATCH_CATALOG", cfg.WatchCatalog)
	return cfg
}

func main() {
	cfg := loadConfig()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, txManager := mustBuildStore(ctx, cfg)
	catalog, err := catalogadapter.Load(cfg.HouseClassesFile)
	if err != nil {
		log.Fatalf("load house classes: %v", err)
	}
	if cfg.WatchCatalog {
		go func() {
			if err := catalog.Watch(ctx); err != nil {
				log.Printf("catalog watch stopped: %v", err)
			}
		}()
	}
	kpiRecorder := metricsinmem.NewRecorder()

	manager := editor.NewManager(editor.Deps{
		Store:         store,
		Catalog:       catalog,
		TxManager:     txManager,
		Metrics:       kpiRecorder,
		UseFootprints: cfg.UseFootprints,
	}, editor.ManagerConfig{TTL: cfg.SessionTTL})
	go manager.RunSweeper(ctx, cfg.SweepInterval)

	h := httpadapter.Handler{
		TownsUC:       layout.ListTownsUseCase{Store: store, TxManager: txManager},
		ChunksUC:      layout.ListChunksUseCase{Store: store, TxManager: txManager},
		SceneUC:       layout.SceneUseCase{Store: store, Catalog: catalog, TxManager: txManager},
		Editor:        manager,
		KPI:           kpiRecorder,
		UseFootprints: cfg.UseFootprints,
	}

	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	h.RegisterRoutes(s)

	log.Printf("villagemap server listening on %s (towns: %s)", cfg.HTTPAddr, describeStore(cfg))
	s.Spin()
}

func mustBuildStore(ctx context.Context, cfg Config) (ports.TownStore, ports.TxManager) {
	if cfg.DBDSN == "" {
		if err := os.MkdirAll(cfg.TownsDir, 0o755); err != nil {
			log.Fatalf("create towns dir: %v", err)
		}
		return filestore.TownStore{Dir: cfg.TownsDir}, filestore.NewTxManager()
	}
	db, err := gormrepo.OpenPostgres(cfg.DBDSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	var migrations fs.FS = gormrepo.Migrations()
	if cfg.MigrationsDir != "" {
		migrations = os.DirFS(cfg.MigrationsDir)
	}
	if err := gormrepo.ApplyMigrations(ctx, db, migrations); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	return gormrepo.NewTownDocumentRepo(db), gormrepo.NewTxManager(db)
}

func describeStore(cfg Config) string {
	if cfg.DBDSN != "" {
		return "postgres"
	}
	return cfg.TownsDir
}

func stringEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
