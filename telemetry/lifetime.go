package telemetry

import (
	"log/slog"
	"sort"
)

// HunterStats tracks per-boid hunting statistics over its lifetime.
type HunterStats struct {
	EntityID  uint32 `csv:"entity_id" json:"entity_id"`
	Name      string `csv:"name" json:"name"`
	BirthTick int32  `csv:"birth_tick" json:"birth_tick"`
	DeathTick int32  `csv:"death_tick" json:"death_tick"`

	Hunts       int `csv:"hunts" json:"hunts"`
	Strikes     int `csv:"strikes" json:"strikes"`
	Hits        int `csv:"hits" json:"hits"`
	Kills       int `csv:"kills" json:"kills"`
	Feedings    int `csv:"feedings" json:"feedings"`
	DamageDealt int `csv:"damage_dealt" json:"damage_dealt"`
}

// HitRate returns hits / strikes, or 0 before the first strike.
func (s *HunterStats) HitRate() float64 {
	if s.Strikes == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Strikes)
}

// HunterTracker manages per-boid hunting statistics.
// Entity IDs are recycled by the world, so Remove must be called on despawn.
type HunterTracker struct {
	stats   map[uint32]*HunterStats
	retired []HunterStats
}

// NewHunterTracker creates a new hunter tracker.
func NewHunterTracker() *HunterTracker {
	return &HunterTracker{
		stats: make(map[uint32]*HunterStats),
	}
}

// Register creates stats for a newly spawned boid.
func (ht *HunterTracker) Register(entityID uint32, name string, birthTick int32) {
	ht.stats[entityID] = &HunterStats{
		EntityID:  entityID,
		Name:      name,
		BirthTick: birthTick,
		DeathTick: -1,
	}
}

// Get returns the stats for an entity, or nil if not found.
func (ht *HunterTracker) Get(entityID uint32) *HunterStats {
	return ht.stats[entityID]
}

// Remove retires an entity's stats and returns them.
func (ht *HunterTracker) Remove(entityID uint32, tick int32) *HunterStats {
	s := ht.stats[entityID]
	if s == nil {
		return nil
	}
	delete(ht.stats, entityID)
	s.DeathTick = tick
	ht.retired = append(ht.retired, *s)
	return s
}

// RecordHunt increments the hunt count.
func (ht *HunterTracker) RecordHunt(entityID uint32) {
	if s := ht.stats[entityID]; s != nil {
		s.Hunts++
	}
}

// RecordStrike records a strike and, if it landed, its damage.
func (ht *HunterTracker) RecordStrike(entityID uint32, hit bool, damage int) {
	s := ht.stats[entityID]
	if s == nil {
		return
	}
	s.Strikes++
	if hit {
		s.Hits++
		s.DamageDealt += damage
	}
}

// RecordKill increments the kill count.
func (ht *HunterTracker) RecordKill(entityID uint32) {
	if s := ht.stats[entityID]; s != nil {
		s.Kills++
	}
}

// RecordFeeding increments the feeding count.
func (ht *HunterTracker) RecordFeeding(entityID uint32) {
	if s := ht.stats[entityID]; s != nil {
		s.Feedings++
	}
}

// Count returns the number of living tracked boids.
func (ht *HunterTracker) Count() int {
	return len(ht.stats)
}

// Top returns the n best hunters, living and retired, ranked by kills,
// then damage dealt, then entity ID.
func (ht *HunterTracker) Top(n int) []HunterStats {
	all := make([]HunterStats, 0, len(ht.stats)+len(ht.retired))
	all = append(all, ht.retired...)
	for _, s := range ht.stats {
		all = append(all, *s)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Kills != all[j].Kills {
			return all[i].Kills > all[j].Kills
		}
		if all[i].DamageDealt != all[j].DamageDealt {
			return all[i].DamageDealt > all[j].DamageDealt
		}
		if all[i].EntityID != all[j].EntityID {
			return all[i].EntityID < all[j].EntityID
		}
		return all[i].BirthTick < all[j].BirthTick
	})
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all
}

// LogTop logs the n best hunters using slog.
func (ht *HunterTracker) LogTop(n int) {
	for rank, s := range ht.Top(n) {
		slog.Info("top hunter",
			"rank", rank+1,
			"entity", s.EntityID,
			"name", s.Name,
			"kills", s.Kills,
			"hits", s.Hits,
			"strikes", s.Strikes,
			"hit_rate", s.HitRate(),
			"damage", s.DamageDealt,
			"feedings", s.Feedings,
		)
	}
}
