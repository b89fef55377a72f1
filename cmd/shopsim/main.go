// Command shopsim runs the caravan shop economy as a standalone host: it
// drives restock timers from a game clock, drifts event modifiers and serves
// the shops over HTTP.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/caravan-market/internal/api"
	"github.com/talgya/caravan-market/internal/config"
	"github.com/talgya/caravan-market/internal/economy"
	"github.com/talgya/caravan-market/internal/engine"
	"github.com/talgya/caravan-market/internal/persistence"
	"github.com/talgya/caravan-market/internal/signals"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.FromEnv()
	slog.Info("Caravan Market shop economy host",
		"catalog", cfg.CatalogPath,
		"restock_unit", cfg.RestockUnit,
		"restock_mode", cfg.RestockMode,
	)

	// ── Catalog ───────────────────────────────────────────────────────
	catalog, file, err := config.LoadCatalogFile(cfg.CatalogPath)
	if catalog == nil {
		slog.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}
	if err != nil {
		// Bad records are skipped; the rest of the catalog is usable.
		slog.Warn("catalog loaded with errors", "error", err)
	}
	if _, ok := catalog.Get(economy.DefaultShopType); !ok {
		slog.Warn("no default shop type configured", "default", economy.DefaultShopType)
	}
	slog.Info("catalog loaded", "shop_types", catalog.Len())

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Economy ───────────────────────────────────────────────────────
	vars := economy.NewMemoryStore()
	econ := economy.New(catalog, vars, economy.Options{
		Mode:       cfg.RestockMode,
		GlobalRate: cfg.GlobalRate,
	})

	var startTick uint64
	if db.HasShopState() {
		slog.Info("found saved shop state, loading...")

		state, err := db.LoadState()
		if err != nil {
			slog.Error("failed to load shop state", "error", err)
			os.Exit(1)
		}
		econ.Restore(state)

		values, err := db.LoadVariables()
		if err != nil {
			slog.Error("failed to load variables", "error", err)
			os.Exit(1)
		}
		vars.Load(values)

		startTick = db.LastTick()
		slog.Info("shop state restored",
			"shops", len(state.Shops),
			"variables", len(values),
			"tick", startTick,
			"sim_time", engine.SimTime(startTick),
		)
	} else {
		slog.Info("no saved state found, shops start at base stock")
		if err := db.SaveEconomy(econ, vars, 0); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── Signals ───────────────────────────────────────────────────────
	sources := make([]signals.Source, 0, len(file.Drift))
	for _, d := range file.Drift {
		sources = append(sources, signals.Source{Var: d.Var, Amplitude: d.Amplitude, Frequency: d.Frequency})
	}
	drift := signals.NewDrift(cfg.Seed, vars, sources)
	if drift.Len() > 0 {
		drift.Apply(startTick)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.SetTick(startTick)
	eng.Interval = cfg.TickInterval

	restock := func(tick uint64) {
		if n := econ.Tick(tick); n > 0 {
			slog.Debug("restock tick", "tick", tick, "shops", n)
		}
	}
	var hourly []func(uint64)
	switch cfg.RestockUnit {
	case config.UnitTick:
		eng.OnTick = restock
	case config.UnitDay:
		// Set below together with the daily save.
	default:
		hourly = append(hourly, restock)
	}
	if drift.Len() > 0 {
		hourly = append(hourly, drift.Apply)
	}
	// Persist the journal hourly; it only holds a bounded window.
	hourly = append(hourly, func(uint64) {
		if err := db.SaveEvents(econ.DrainEvents()); err != nil {
			slog.Error("event flush failed", "error", err)
		}
	})
	eng.OnHour = func(tick uint64) {
		for _, fn := range hourly {
			fn(tick)
		}
	}
	eng.OnDay = func(tick uint64) {
		if cfg.RestockUnit == config.UnitDay {
			restock(tick)
		}
		// Auto-save daily.
		if err := db.SaveEconomy(econ, vars, tick); err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("SHOPSIM_ADMIN_KEY not set, admin POST endpoints will be disabled")
	}

	apiServer := &api.Server{
		Econ:     econ,
		Vars:     vars,
		Eng:      eng,
		DB:       db,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Printf("\nCaravan Market is open: %d shop types.\n", catalog.Len())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	if startTick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", startTick, engine.SimTime(startTick))
	}
	fmt.Println("Starting clock... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveEconomy(econ, vars, eng.Tick()); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Clock stopped. Shop state saved.")
}
