package game

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/systems"
)

// flockSnapshot captures read-only state for parallel processing.
type flockSnapshot struct {
	Sample systems.FlockSample
	Cell   components.GridCell
	Tuning components.Boid
}

// flockIntent captures computed outputs to apply after the parallel phase.
type flockIntent struct {
	Aggregate  systems.FlockAggregate
	Candidates int
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []ecs.Entity
	Samples   []systems.FlockSample
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel flocking.
type parallelState struct {
	snapshots  []flockSnapshot
	intents    []flockIntent
	lookup     map[ecs.Entity]int // entity -> snapshot index
	scratches  []workerScratch
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(threshold int) *parallelState {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]ecs.Entity, 0, 64)
		scratches[i].Samples = make([]systems.FlockSample, 0, 64)
	}
	return &parallelState{
		numWorkers: numWorkers,
		threshold:  threshold,
		scratches:  scratches,
		snapshots:  make([]flockSnapshot, 0, 256),
		intents:    make([]flockIntent, 0, 256),
		lookup:     make(map[ecs.Entity]int, 256),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.computeChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// updateFlocking computes every boid's flock aggregate from a start-of-tick
// snapshot, so results do not depend on evaluation order.
func (g *Game) updateFlocking() {
	p := g.parallel

	// Phase A: Build snapshots (single-threaded)
	p.snapshots = p.snapshots[:0]
	clear(p.lookup)

	query := g.boidFilter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, boid, heading, _, _, _ := query.Get()

		cell, ok := g.index.Cell(e)
		if !ok {
			continue
		}
		p.lookup[e] = len(p.snapshots)
		p.snapshots = append(p.snapshots, flockSnapshot{
			Sample: systems.FlockSample{Entity: e, Pos: pos.Vec, Heading: heading.Direction},
			Cell:   cell,
			Tuning: *boid,
		})
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}

	if cap(p.intents) < n {
		p.intents = make([]flockIntent, n)
	}
	p.intents = p.intents[:n]

	// Phase B: Compute - choose single or parallel based on boid count
	if n < p.threshold || p.numWorkers < 2 {
		g.computeChunk(0, n, &p.scratches[0])
	} else {
		g.computeParallel(n)
	}

	// Phase C: Apply intents (single-threaded, preserves determinism)
	g.applyFlockIntents()
}

// computeParallel dispatches work to the worker pool.
func (g *Game) computeParallel(n int) {
	p := g.parallel
	if !p.running {
		p.startWorkers(g)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}

// computeChunk processes a range of snapshots for a single worker.
// Reads only the snapshot, the lookup and the index.
func (g *Game) computeChunk(i0, i1 int, scratch *workerScratch) {
	p := g.parallel
	for i := i0; i < i1; i++ {
		snap := &p.snapshots[i]

		scratch.Neighbors = g.index.NeighborsInto(scratch.Neighbors[:0], snap.Cell)
		scratch.Samples = scratch.Samples[:0]
		for _, e := range scratch.Neighbors {
			// Non-boids (the player) share cells but do not flock.
			if j, ok := p.lookup[e]; ok {
				scratch.Samples = append(scratch.Samples, p.snapshots[j].Sample)
			}
		}

		p.intents[i] = flockIntent{
			Aggregate:  systems.ComputeFlock(snap.Sample, &snap.Tuning, scratch.Samples),
			Candidates: len(scratch.Neighbors),
		}
	}
}

// applyFlockIntents writes computed aggregates back to the boids.
func (g *Game) applyFlockIntents() {
	p := g.parallel
	for i := range p.snapshots {
		boid := g.boidMap.Get(p.snapshots[i].Sample.Entity)
		if boid == nil {
			continue
		}
		intent := &p.intents[i]
		intent.Aggregate.Apply(boid)
		g.collector.RecordFlockQuery(intent.Candidates)
	}
}

// stopParallelWorkers should be called when shutting down the game.
func (g *Game) stopParallelWorkers() {
	if g.parallel != nil {
		g.parallel.stopWorkers()
	}
}
