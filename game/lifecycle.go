package game

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
)

// spawnInitialPopulation creates the starting flock in waves.
func (g *Game) spawnInitialPopulation() {
	pop := g.cfg.Population
	target := min(pop.Initial, pop.Max)
	for g.numBoids < target {
		g.spawnWave(min(pop.WaveSize, target-g.numBoids))
	}
}

// spawnWave spawns n boids around a random point.
func (g *Game) spawnWave(n int) {
	if n <= 0 {
		return
	}
	spread := g.cfg.Boids.SpawnSpread
	center := g.randomPoint(spread)
	for i := 0; i < n; i++ {
		g.spawnBoid(center)
	}
	slog.Info("wave spawned", "tick", g.tick, "boids", n, "total", g.numBoids)
}

// spawnBoid creates a boid near center with tunables drawn from the config ranges.
func (g *Game) spawnBoid(center r2.Vec) ecs.Entity {
	b := &g.cfg.Boids
	spread := b.SpawnSpread

	offset := r2.Vec{
		X: (g.rng.Float64()*2 - 1) * spread,
		Y: (g.rng.Float64()*2 - 1) * spread,
	}
	angle := g.rng.Float64()*2*math.Pi - math.Pi
	dir := r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}

	pos := components.Position{Vec: g.clampToWorld(r2.Add(center, offset))}
	vel := components.Velocity{}
	rot := components.Rotation{Angle: angle}
	boid := components.Boid{
		CohesionDistance:   b.CohesionDistance,
		SeparationDistance: b.SeparationDistance,
		AlignmentDistance:  b.AlignmentDistance,
		CohesionFactor:     g.randRange(b.CohesionFactor),
		SeparationFactor:   g.randRange(b.SeparationFactor),
		AlignmentFactor:    g.randRange(b.AlignmentFactor),
		DesiredFactor:      b.DesiredFactor,
		TurnSpeed:          g.randRange(b.TurnSpeed),
	}
	heading := components.Heading{
		Direction:  dir,
		Up:         r2.Vec{X: -dir.Y, Y: dir.X},
		ForceScale: g.cfg.Physics.ForceScale,
	}
	hunger := components.Hunger{Value: b.HungerStart, PerSecond: b.HungerPerSecond}
	// Cooldown starts at zero so the first strike lands on engagement.
	attack := components.Attack{
		DamageMin:       b.DamageMin,
		DamageMax:       g.randIntRange(b.DamageMax),
		CooldownDefault: g.randRange(b.AttackCooldown),
		SkillLevel:      g.randIntRange(b.Skill),
	}
	hunt := components.Hunt{State: components.HuntIdle}

	entity := g.boidMapper.NewEntity(&pos, &vel, &rot, &boid, &heading, &hunger, &attack, &hunt)

	name := g.nextName()
	g.healthMap.Add(entity, &components.Health{Current: b.Health, Max: b.Health})
	g.nameMap.Add(entity, &components.Name{Value: name})
	if b.ArePrey {
		g.preyMap.Add(entity, &components.Prey{})
	}

	g.numBoids++
	g.collector.RecordSpawn()
	g.hunters.Register(entity.ID(), name, g.tick)
	return entity
}

// spawnPlayer creates the prey-tagged player body at a random point.
func (g *Game) spawnPlayer() {
	p := g.cfg.Player

	angle := g.rng.Float64()*2*math.Pi - math.Pi
	dir := r2.Vec{X: math.Cos(angle), Y: math.Sin(angle)}

	pos := components.Position{Vec: g.randomPoint(0)}
	vel := components.Velocity{}
	rot := components.Rotation{Angle: angle}
	heading := components.Heading{
		Direction:  dir,
		Up:         r2.Vec{X: -dir.Y, Y: dir.X},
		ForceScale: p.Speed,
	}
	health := components.Health{Current: p.Health, Max: p.Health}
	name := components.Name{Value: "Player"}

	g.player = g.playerMapper.NewEntity(&pos, &vel, &rot, &heading, &health, &components.Player{}, &components.Prey{}, &name)
	g.playerAlive = true
	g.respawnTimer = 0
	slog.Info("player spawned", "tick", g.tick, "entity", g.player.ID(), "x", pos.X, "y", pos.Y)
}

// cleanupDead removes every entity whose health reached zero.
func (g *Game) cleanupDead() {
	// First pass: collect dead entities (must complete before modifying)
	var toRemove []ecs.Entity
	query := g.healthFilter.Query()
	for query.Next() {
		if query.Get().Current <= 0 {
			toRemove = append(toRemove, query.Entity())
		}
	}

	// Second pass: remove
	for _, e := range toRemove {
		g.index.Remove(e)
		delete(g.pendingCancel, e)

		if g.playerMap.Has(e) {
			g.playerAlive = false
			g.respawnTimer = g.cfg.Player.RespawnDelay
			slog.Info("player killed", "tick", g.tick, "entity", e.ID())
			if g.cfg.Hunting.CancelOnPlayerDeath {
				g.cancelAll = true
			}
		} else {
			g.numBoids--
			g.hunters.Remove(e.ID(), g.tick)
		}

		g.collector.RecordDespawn()
		g.world.RemoveEntity(e)
	}
}

// updateSpawner spawns a wave every cooldown while below the population cap.
func (g *Game) updateSpawner(dt float64) {
	pop := g.cfg.Population
	if pop.WaveCooldown <= 0 || pop.WaveSize <= 0 {
		return
	}
	g.waveTimer += dt
	if g.waveTimer < pop.WaveCooldown {
		return
	}
	g.waveTimer = 0
	if g.numBoids >= pop.Max {
		return
	}
	g.spawnWave(min(pop.WaveSize, pop.Max-g.numBoids))
}

// updatePlayerRespawn brings the player back after its respawn delay.
func (g *Game) updatePlayerRespawn(dt float64) {
	p := g.cfg.Player
	if !p.Enabled || g.playerAlive || p.RespawnDelay < 0 {
		return
	}
	g.respawnTimer -= dt
	if g.respawnTimer <= 0 {
		g.spawnPlayer()
	}
}

// randomPoint returns a uniform point at least margin away from the world edge.
func (g *Game) randomPoint(margin float64) r2.Vec {
	hw := math.Max(g.cfg.Derived.HalfWidth-margin, 0)
	hh := math.Max(g.cfg.Derived.HalfHeight-margin, 0)
	return r2.Vec{
		X: (g.rng.Float64()*2 - 1) * hw,
		Y: (g.rng.Float64()*2 - 1) * hh,
	}
}

// clampToWorld keeps p inside the world bounds.
func (g *Game) clampToWorld(p r2.Vec) r2.Vec {
	hw, hh := g.cfg.Derived.HalfWidth, g.cfg.Derived.HalfHeight
	return r2.Vec{
		X: math.Max(-hw, math.Min(hw, p.X)),
		Y: math.Max(-hh, math.Min(hh, p.Y)),
	}
}

// randRange samples uniformly from [r.Min, r.Max).
func (g *Game) randRange(r config.Range) float64 {
	return r.Min + g.rng.Float64()*(r.Max-r.Min)
}

// randIntRange samples uniformly from [r.Min, r.Max].
func (g *Game) randIntRange(r config.IntRange) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + g.rng.Intn(r.Max-r.Min+1)
}

var boidNames = []string{
	"Alder", "Birch", "Cinder", "Dusk", "Ember", "Flint", "Gale", "Hollow",
	"Ivy", "Jet", "Kestrel", "Lark", "Moss", "Nettle", "Onyx", "Pike",
	"Quill", "Rook", "Sable", "Thorn", "Umber", "Vale", "Wren", "Yarrow",
}

// nextName returns a unique display name.
func (g *Game) nextName() string {
	g.spawnSerial++
	return fmt.Sprintf("%s-%d", boidNames[g.rng.Intn(len(boidNames))], g.spawnSerial)
}
