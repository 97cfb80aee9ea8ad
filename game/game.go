package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/systems"
	"github.com/pthm-cable/boids/telemetry"
)

// Options configures a Game beyond the loaded config.
type Options struct {
	Seed           int64
	LogStats       bool                         // Log window and perf stats via slog
	StatsWindowSec float64                      // 0 = use config
	OutputDir      string                       // CSV + config output (empty = disabled)
	ArchivePath    string                       // SQLite run archive (empty = disabled)
	SnapshotDir    string                       // Bookmark snapshots (empty = output dir, if any)
	StatsCallback  func(telemetry.WindowStats) // Called on each window flush
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	boidMapper *ecs.Map8[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Boid,
		components.Heading,
		components.Hunger,
		components.Attack,
		components.Hunt,
	]
	playerMapper *ecs.Map8[
		components.Position,
		components.Velocity,
		components.Rotation,
		components.Heading,
		components.Health,
		components.Player,
		components.Prey,
		components.Name,
	]
	boidFilter *ecs.Filter7[
		components.Position,
		components.Rotation,
		components.Boid,
		components.Heading,
		components.Hunger,
		components.Attack,
		components.Hunt,
	]
	posFilter    *ecs.Filter1[components.Position]
	hungerFilter *ecs.Filter1[components.Hunger]
	healthFilter *ecs.Filter1[components.Health]

	// Individual component mappers for lookups
	posMap     *ecs.Map[components.Position]
	velMap     *ecs.Map[components.Velocity]
	rotMap     *ecs.Map[components.Rotation]
	boidMap    *ecs.Map[components.Boid]
	headingMap *ecs.Map[components.Heading]
	hungerMap  *ecs.Map[components.Hunger]
	huntMap    *ecs.Map[components.Hunt]
	healthMap  *ecs.Map[components.Health]
	preyMap    *ecs.Map[components.Prey]
	playerMap  *ecs.Map[components.Player]
	nameMap    *ecs.Map[components.Name]

	// Systems
	index        *systems.SpatialIndex
	hunting      *systems.HuntingBehavior
	wander       *systems.Wander
	playerWander *systems.Wander
	physics      *systems.PhysicsSystem
	parallel     *parallelState
	prey         *preyView

	// State
	tick        int32
	simTime     float64
	spawnSerial int
	waveTimer   float64
	numBoids    int

	player        ecs.Entity
	playerAlive   bool
	respawnTimer  float64
	playerSteer   r2.Vec
	playerSteered bool

	cancelAll     bool
	pendingCancel map[ecs.Entity]struct{}

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	hunters          *telemetry.HunterTracker
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	archive          *telemetry.Archive
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
}

// NewGame creates a simulation from cfg and spawns the initial population.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()
	index, err := systems.NewSpatialIndex(cfg.Grid)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		cfg:   cfg,
		world: world,
		rng:   rng,
		seed:  opts.Seed,

		boidMapper: ecs.NewMap8[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Boid,
			components.Heading,
			components.Hunger,
			components.Attack,
			components.Hunt,
		](world),
		playerMapper: ecs.NewMap8[
			components.Position,
			components.Velocity,
			components.Rotation,
			components.Heading,
			components.Health,
			components.Player,
			components.Prey,
			components.Name,
		](world),
		boidFilter: ecs.NewFilter7[
			components.Position,
			components.Rotation,
			components.Boid,
			components.Heading,
			components.Hunger,
			components.Attack,
			components.Hunt,
		](world),
		posFilter:    ecs.NewFilter1[components.Position](world),
		hungerFilter: ecs.NewFilter1[components.Hunger](world),
		healthFilter: ecs.NewFilter1[components.Health](world),

		posMap:     ecs.NewMap[components.Position](world),
		velMap:     ecs.NewMap[components.Velocity](world),
		rotMap:     ecs.NewMap[components.Rotation](world),
		boidMap:    ecs.NewMap[components.Boid](world),
		headingMap: ecs.NewMap[components.Heading](world),
		hungerMap:  ecs.NewMap[components.Hunger](world),
		huntMap:    ecs.NewMap[components.Hunt](world),
		healthMap:  ecs.NewMap[components.Health](world),
		preyMap:    ecs.NewMap[components.Prey](world),
		playerMap:  ecs.NewMap[components.Player](world),
		nameMap:    ecs.NewMap[components.Name](world),

		index:        index,
		hunting:      systems.NewHuntingBehavior(cfg.Hunting, rng),
		wander:       systems.NewWander(opts.Seed, cfg.Boids.WanderFrequency, cfg.Boids.WanderStrength),
		playerWander: systems.NewWander(opts.Seed+1, cfg.Player.WanderFreq, 1),
		physics: systems.NewPhysicsSystem(world, systems.Bounds{
			HalfWidth:  cfg.Derived.HalfWidth,
			HalfHeight: cfg.Derived.HalfHeight,
		}),
		parallel:      newParallelState(cfg.Population.ParallelMinimum),
		pendingCancel: make(map[ecs.Entity]struct{}),

		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
	}
	g.prey = &preyView{g: g}

	if err := g.initTelemetry(opts); err != nil {
		return nil, err
	}

	g.spawnInitialPopulation()
	if cfg.Player.Enabled {
		g.spawnPlayer()
	}

	slog.Info("simulation created",
		"seed", opts.Seed,
		"boids", g.numBoids,
		"player", g.playerAlive,
		"cell_size", g.index.CellSize(),
	)
	return g, nil
}

// initTelemetry sets up collectors and optional outputs.
func (g *Game) initTelemetry(opts Options) error {
	cfg := g.cfg

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}
	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.DT)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	g.hunters = telemetry.NewHunterTracker()
	g.bookmarkDetector = telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return fmt.Errorf("write config: %w", err)
	}

	g.snapshotDir = opts.SnapshotDir
	if g.snapshotDir == "" {
		g.snapshotDir = om.SnapshotDir()
	}

	if opts.ArchivePath != "" {
		raw, err := cfg.YAML()
		if err != nil {
			om.Close()
			return fmt.Errorf("encode config: %w", err)
		}
		archive, err := telemetry.OpenArchive(opts.ArchivePath, opts.Seed, string(raw))
		if err != nil {
			om.Close()
			return fmt.Errorf("archive: %w", err)
		}
		g.archive = archive
	}
	return nil
}

// Tick returns the number of completed ticks.
func (g *Game) Tick() int32 {
	return g.tick
}

// SimTime returns the elapsed simulation time in seconds.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// BoidCount returns the number of living boids.
func (g *Game) BoidCount() int {
	return g.numBoids
}

// PlayerAlive reports whether the player body currently exists.
func (g *Game) PlayerAlive() bool {
	return g.playerAlive
}

// Player returns the player entity, if alive.
func (g *Game) Player() (ecs.Entity, bool) {
	return g.player, g.playerAlive
}

// Index exposes the spatial index for inspection.
func (g *Game) Index() *systems.SpatialIndex {
	return g.index
}

// RunID returns the archive run ID, or "" when archiving is disabled.
func (g *Game) RunID() string {
	return g.archive.RunID()
}

// SetPlayerDirection steers the player directly, replacing its wander.
// A zero vector stops the player.
func (g *Game) SetPlayerDirection(dir r2.Vec) {
	g.playerSteer = dir
	g.playerSteered = true
}

// ReleasePlayer returns the player to noise-driven wandering.
func (g *Game) ReleasePlayer() {
	g.playerSteered = false
}

// CancelHunt aborts e's hunt at the start of the next hunting phase.
func (g *Game) CancelHunt(e ecs.Entity) {
	g.pendingCancel[e] = struct{}{}
}

// CancelAllHunts aborts every hunt at the start of the next hunting phase.
func (g *Game) CancelAllHunts() {
	g.cancelAll = true
}

// Close stops workers, records the final hunter ranking and closes outputs.
func (g *Game) Close() error {
	g.stopParallelWorkers()

	top := g.hunters.Top(g.cfg.Telemetry.TopHunters)
	g.hunters.LogTop(g.cfg.Telemetry.TopHunters)

	var firstErr error
	if err := g.outputManager.WriteHunters(top); err != nil {
		firstErr = err
	}
	if err := g.archive.Finish(g.tick, top); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.archive.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := g.outputManager.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
