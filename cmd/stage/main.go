package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/stage/internal/config"
	"github.com/l1jgo/stage/internal/core/collision"
	"github.com/l1jgo/stage/internal/core/contract"
	"github.com/l1jgo/stage/internal/core/entity"
	"github.com/l1jgo/stage/internal/core/event"
	"github.com/l1jgo/stage/internal/core/pubsub"
	coresys "github.com/l1jgo/stage/internal/core/system"
	"github.com/l1jgo/stage/internal/data"
	"github.com/l1jgo/stage/internal/persist"
	"github.com/l1jgo/stage/internal/render"
	"github.com/l1jgo/stage/internal/scripting"
	"github.com/l1jgo/stage/internal/system"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m               stage  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m         headless 2D entity engine         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - runewidth.StringWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - runewidth.StringWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Engine ────────────────────────────────────────────────────────

// loadConfig reads STAGE_CONFIG, or config/stage.toml. Without an explicit
// path a missing default file falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	cfgPath := "config/stage.toml"
	explicit := false
	if p := os.Getenv("STAGE_CONFIG"); p != "" {
		cfgPath, explicit = p, true
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config.Defaults(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// nopStore stands in for the database when persistence is disabled.
type nopStore struct{}

func (nopStore) SaveAll(context.Context, []persist.EntityRow) error { return nil }
func (nopStore) Delete(context.Context, uuid.UUID) error            { return nil }

func run() error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	contract.Configure(cfg.Engine.FailFast, log)
	printBanner()

	// 3. Core services
	events := event.NewBus()
	bus := pubsub.New(log)
	world := entity.NewWorld(&entity.Env{
		Bus:           bus,
		Events:        events,
		Log:           log,
		MaxComponents: cfg.Engine.MaxComponents,
	})

	// 4. Scripts and data
	printSection("scripts & data")
	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, bus, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	printStat("behaviors", len(scripts.Behaviors()))

	spawned, err := loadScene(cfg.Data, world, scripts)
	if err != nil {
		return err
	}
	printStat("entities", len(spawned))
	for _, e := range spawned {
		if err := e.Broadcast(scripting.HandlerStart); err != nil {
			log.Warn("start handler failed", zap.Stringer("entity", e), zap.Error(err))
		}
	}
	fmt.Println()

	// 5. Optional PostgreSQL store
	var store system.EntityStore = nopStore{}
	var journal system.Journal
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		if v, err := persist.SchemaVersion(ctx, db.Pool); err == nil {
			printStat("schema version", int(v))
		}
		store = persist.NewEntityRepo(db)
		journal = persist.NewJournalRepo(db)
		fmt.Println()
	}

	// 6. Create systems and register with runner
	saveTicks := int(cfg.Persist.SaveInterval / cfg.Engine.TickRate)
	engine := collision.NewEngine(collision.Config{
		BroadPhase: cfg.Engine.BroadPhase,
		CellSize:   cfg.Engine.CellSize,
		StayEvents: cfg.Engine.StayEvents,
	}, events, log)
	stats := &render.Stats{}
	updateSys := system.NewUpdateSystem(world)
	persistSys := system.NewPersistenceSystem(world, events, store, journal, log, saveTicks)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(events))
	runner.Register(updateSys)
	runner.Register(system.NewCollisionSystem(world, engine))
	runner.Register(system.NewRenderSystem(world, stats))
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(world, scripts, log))

	// 7. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Engine.TickRate))
	fmt.Println()

	shutdown := func(reason string) error {
		log.Info("shutting down",
			zap.String("reason", reason),
			zap.Uint64("ticks", updateSys.Ticks()),
			zap.Int("draw_calls", stats.Total()),
			zap.Duration("slowest_tick", runner.Slowest()))
		// deliver pending destroy events, then save
		events.SwapBuffers()
		events.DispatchAll()
		persistSys.Flush()
		if cfg.Data.Snapshot != "" {
			if err := writeSnapshot(cfg.Data.Snapshot, world, updateSys.Ticks()); err != nil {
				log.Error("snapshot failed", zap.Error(err))
			} else {
				log.Info("snapshot written", zap.String("path", cfg.Data.Snapshot))
			}
		}
		log.Info("engine stopped")
		return nil
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Engine.TickRate)
			if cfg.Engine.MaxTicks > 0 && updateSys.Ticks() >= uint64(cfg.Engine.MaxTicks) {
				return shutdown("max ticks reached")
			}
		case sig := <-shutdownCh:
			return shutdown(sig.String())
		}
	}
}

func loadScene(cfg config.DataConfig, world *entity.World, scripts *scripting.Engine) ([]*entity.Entity, error) {
	if cfg.Prefabs == "" || cfg.Scene == "" {
		return nil, nil
	}
	prefabs, err := data.LoadPrefabTable(cfg.Prefabs)
	if err != nil {
		return nil, fmt.Errorf("load prefabs: %w", err)
	}
	scene, err := data.LoadScene(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("load scene: %w", err)
	}
	spawned, err := prefabs.SpawnScene(world, scene, scripts)
	if err != nil {
		return nil, fmt.Errorf("spawn scene: %w", err)
	}
	return spawned, nil
}

func writeSnapshot(path string, world *entity.World, tick uint64) error {
	snap := &data.Snapshot{Taken: time.Now().UTC(), Tick: tick}
	world.Each(func(e *entity.Entity) {
		snap.Entities = append(snap.Entities, e.Document())
	})
	return data.WriteSnapshot(path, snap)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
