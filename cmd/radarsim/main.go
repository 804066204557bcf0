package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/skyguard/radarsim/internal/config"
	"github.com/skyguard/radarsim/internal/core/clock"
	"github.com/skyguard/radarsim/internal/core/event"
	coresys "github.com/skyguard/radarsim/internal/core/system"
	"github.com/skyguard/radarsim/internal/data"
	"github.com/skyguard/radarsim/internal/geom"
	"github.com/skyguard/radarsim/internal/handler"
	gonet "github.com/skyguard/radarsim/internal/net"
	"github.com/skyguard/radarsim/internal/net/packet"
	"github.com/skyguard/radarsim/internal/persist"
	"github.com/skyguard/radarsim/internal/radar"
	"github.com/skyguard/radarsim/internal/scripting"
	"github.com/skyguard/radarsim/internal/stats"
	"github.com/skyguard/radarsim/internal/system"
	"github.com/skyguard/radarsim/internal/targeting"
	"github.com/skyguard/radarsim/internal/track"
	"github.com/skyguard/radarsim/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, seed int64) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             radarsim  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      drone radar defense simulation       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mrun:\033[0m %s \033[90m(seed: %d)\033[0m\n\n", name, seed)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	s := fmt.Sprint(value)
	dotsLen := 42 - len(label) - len(s)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), s)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printWarn(msg string) {
	fmt.Printf("  \033[33m!\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Defaults()
		cfg.Server.StartTime = time.Now().Unix()
		err = nil
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	printBanner(cfg.Server.Name, seed)

	// 3. Simulation core
	printSection("simulation")
	clk := clock.Wall{}
	bus := event.NewBus()
	reg := world.NewRegistry(bus, rand.New(rand.NewSource(seed)), log)
	reg.SetSpawnParams(spawnParams(cfg.Spawn))
	reg.SetThreatParams(threatParams(cfg.Threat))

	scripts, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		log.Warn("threat scripts not loaded, using built-in levels", zap.Error(err))
		printWarn("threat scripts unavailable")
	} else {
		defer scripts.Close()
		reg.SetLevelFunc(scripts.ThreatLevelFunc(track.ThreatLevel))
		printOK(fmt.Sprintf("threat scripts loaded from %s", cfg.Data.ScriptsDir))
	}

	scanner := radar.NewScanner(reg, radar.Settings{
		Interval: cfg.Radar.ScanInterval,
		Radius:   cfg.Radar.Radius,
		Center:   geom.V(cfg.Radar.CenterX, cfg.Radar.CenterY),
	}, log)
	printStat("radar radius", cfg.Radar.Radius)
	printStat("scan interval", cfg.Radar.ScanInterval)
	printStat("spawn interval", cfg.Spawn.Interval)
	printStat("max drones", cfg.Spawn.MaxDrones)

	// 4. Weapons
	catalog := loadCatalog(cfg.Data.WeaponList, log)
	weapon := targeting.NewEngine(reg, bus, catalog, log)
	weapon.SetParams(targeting.Params{
		TimeScoreFloor:   cfg.Weapon.TimeScoreFloor,
		UrgentHorizon:    cfg.Weapon.UrgentHorizon,
		Lead:             cfg.Weapon.Lead,
		FallbackMinScore: cfg.Weapon.FallbackMinScore,
		AutoFirePeriod:   cfg.Weapon.PollInterval,
	})
	if err := selectWeapon(weapon, cfg.Weapon); err != nil {
		return fmt.Errorf("weapon: %w", err)
	}
	weapon.SetAutoFire(cfg.Weapon.AutoFire)
	printStat("weapon", weapon.Active().Name)
	printStat("auto fire", cfg.Weapon.AutoFire)
	fmt.Println()

	// 5. Engagement journal (optional)
	printSection("journal")
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()
	jr, writer, closeDB := openJournal(cfg, seed, log)
	if closeDB != nil {
		defer closeDB()
	}
	writerDone := make(chan struct{})
	if writer != nil {
		go func() {
			writer.Run(journalCtx)
			close(writerDone)
		}()
	} else {
		close(writerDone)
	}
	fmt.Println()

	// 6. Network
	printSection("network")
	scanSrv, err := gonet.NewDatagramServer(cfg.Network.ScanBind, cfg.Network.InQueueSize, log)
	if err != nil {
		log.Error("detection socket unavailable, frames will not be sent", zap.Error(err))
		printWarn("detection output disabled")
	}
	ctrlSrv, err := gonet.NewDatagramServer(cfg.Network.ControlBind, cfg.Network.InQueueSize, log)
	if err != nil {
		log.Error("control socket unavailable, control channel disabled", zap.Error(err))
		printWarn("control channel disabled")
	}

	var (
		bc      *gonet.Broadcaster
		frames  system.FrameQueue
		flusher system.Flusher
	)
	if scanSrv != nil {
		defer scanSrv.Shutdown()
		bc = gonet.NewBroadcaster(scanSrv, log)
		frames, flusher = bc, bc
		for _, r := range cfg.Network.Receivers {
			addr, err := net.ResolveUDPAddr("udp", r)
			if err != nil {
				log.Warn("bad receiver address", zap.String("receiver", r), zap.Error(err))
				continue
			}
			bc.AddReceiver(addr)
		}
		printOK(fmt.Sprintf("detection frames from %s", scanSrv.Addr()))
		printStat("receivers", len(bc.Receivers()))
	}

	scanTask := coresys.NewPeriodic(cfg.Radar.ScanInterval)
	spawnTask := coresys.NewPeriodic(cfg.Spawn.Interval)
	spawnSys := system.NewSpawnSystem(reg, spawnTask, cfg.Spawn.AutoStart)
	deps := &handler.Deps{
		Scanner:     scanner,
		Registry:    reg,
		Weapon:      weapon,
		ScanTask:    scanTask,
		SpawnTask:   spawnTask,
		Generator:   spawnSys,
		Clock:       clk,
		Broadcaster: bc,
		Log:         log,
	}
	pktReg := packet.NewRegistry(log)
	var inbox system.Inbox
	if ctrlSrv != nil {
		defer ctrlSrv.Shutdown()
		deps.Replier = ctrlSrv
		inbox = ctrlSrv
		go ctrlSrv.ReadLoop()
		printOK(fmt.Sprintf("control channel on %s", ctrlSrv.Addr()))
	}
	handler.RegisterAll(pktReg, deps)
	fmt.Println()

	// 7. Systems
	tracker := stats.NewTracker(log)
	tracker.Subscribe(bus)

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(inbox, pktReg, cfg.Network.MaxPacketsPerTick, log))
	runner.Register(spawnSys)
	runner.Register(system.NewMotionSystem(reg))
	runner.Register(system.NewScanSystem(scanner, scanTask, bus, frames, log))
	runner.Register(system.NewWeaponSystem(weapon, scanner, reg, weapon.Params().AutoFirePeriod, cfg.Threat.PriorityInterval, log))
	runner.Register(system.NewOutputSystem(bus, flusher))
	var journal *system.JournalSystem
	if writer != nil {
		journal = system.NewJournalSystem(bus, writer, cfg.Database.FlushInterval, log)
		runner.Register(journal)
	}
	runner.Register(system.NewStatsSystem(tracker, cfg.Server.StatsInterval))

	// 8. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(clk.Now(), cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			now := clk.Now()
			// Deliver the last tick's events before the final flush.
			runner.TickPhase(coresys.PhaseOutput, now, 0)
			if journal != nil {
				journal.Flush()
			}
			stopJournal()
			<-writerDone

			sum := tracker.Summary()
			if jr != nil {
				finishRun(jr, now, sum, log)
			}
			fmt.Println()
			printSection("summary")
			fmt.Print(indent(sum.Report()))
			fmt.Println()
			log.Info("simulation stopped")
			return nil
		}
	}
}

func spawnParams(c config.SpawnConfig) world.SpawnParams {
	p := world.DefaultSpawnParams()
	p.HalfSize = c.HalfSize
	p.MaxDrones = c.MaxDrones
	p.MinSpeed = c.MinSpeed
	p.MaxSpeed = c.MaxSpeed
	p.PerturbChance = c.PerturbChance
	return p
}

func threatParams(c config.ThreatConfig) world.ThreatParams {
	p := world.DefaultThreatParams()
	p.MinEngageScore = c.MinEngageScore
	p.HighThreatScore = c.HighThreatScore
	p.AlertScore = c.AlertScore
	p.CoreFraction = c.CoreFraction
	p.CoreHorizon = c.CoreHorizon
	p.ApproachFactor = c.ApproachFactor
	p.StrikeGridCells = c.StrikeGridCells
	p.InterceptSpeed = c.InterceptSpeed
	p.MaxPriority = c.MaxPriority
	return p
}

// loadCatalog reads the weapon list, falling back to the built-in catalog.
func loadCatalog(path string, log *zap.Logger) targeting.Catalog {
	if path == "" {
		printOK("built-in weapon catalog")
		return targeting.DefaultCatalog()
	}
	table, err := data.LoadWeaponTable(path)
	if err == nil {
		var cat targeting.Catalog
		if cat, err = targeting.CatalogFromTable(table); err == nil {
			printStat("weapons loaded", table.Count())
			return cat
		}
	}
	log.Warn("weapon list rejected, using built-in catalog", zap.String("path", path), zap.Error(err))
	printWarn("built-in weapon catalog")
	return targeting.DefaultCatalog()
}

func selectWeapon(eng *targeting.Engine, c config.WeaponConfig) error {
	p, err := targeting.ParseProfile(c.Profile)
	if err != nil {
		return err
	}
	s, err := targeting.ParseStrategy(c.Strategy)
	if err != nil {
		return err
	}
	return eng.Select(p, s)
}

// openJournal connects, migrates and starts a run. Any failure disables the
// journal; the simulation runs without it.
func openJournal(cfg *config.Config, seed int64, log *zap.Logger) (*persist.JournalRepo, *persist.JournalWriter, func()) {
	if cfg.Database.DSN == "" {
		printWarn("journal disabled (no dsn)")
		return nil, nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		log.Error("journal database unavailable", zap.Error(err))
		printWarn("journal disabled (database unavailable)")
		return nil, nil, nil
	}
	printOK("PostgreSQL connected")

	version, err := persist.RunMigrations(ctx, db.Pool, log)
	if err != nil {
		log.Error("journal migrations failed", zap.Error(err))
		db.Close()
		printWarn("journal disabled (migrations failed)")
		return nil, nil, nil
	}
	printStat("schema version", version)

	repo := persist.NewJournalRepo(db)
	if err := repo.StartRun(ctx, cfg.Server.Name, seed, time.Now()); err != nil {
		log.Error("journal run not started", zap.Error(err))
		db.Close()
		printWarn("journal disabled (run not started)")
		return nil, nil, nil
	}
	printStat("run id", repo.RunID())
	return repo, persist.NewJournalWriter(repo, 64, log), db.Close
}

func finishRun(repo *persist.JournalRepo, at time.Time, s stats.Summary, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := repo.FinishRun(ctx, at, persist.RunTotals{
		Spawned:   s.Spawned,
		Destroyed: s.Destroyed,
		Escaped:   s.Escaped,
		Strikes:   s.Strikes,
	})
	if err != nil {
		log.Error("journal run not finished", zap.Error(err))
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return "  " + strings.Join(lines, "\n  ") + "\n"
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
