package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the flock state at one tick, for offline inspection.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Seed    int64  `json:"seed"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`
	CellSize    float64 `json:"cell_size"`

	Tick int32 `json:"tick"`

	Entities []EntityState `json:"entities"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// EntityState holds one entity's state.
type EntityState struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name,omitempty"`
	Player bool   `json:"player,omitempty"`
	Prey   bool   `json:"prey,omitempty"`

	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VelX     float64 `json:"vel_x"`
	VelY     float64 `json:"vel_y"`
	Angle    float64 `json:"angle"`
	HeadingX float64 `json:"heading_x"`
	HeadingY float64 `json:"heading_y"`

	Health    int     `json:"health"`
	MaxHealth int     `json:"max_health"`
	Hunger    float64 `json:"hunger"`

	HuntState string  `json:"hunt_state,omitempty"`
	TargetID  *uint32 `json:"target_id,omitempty"`

	Hunter *HunterStats `json:"hunter,omitempty"`
}

// SnapshotName returns the file name a snapshot is saved under.
func SnapshotName(s *Snapshot) string {
	name := fmt.Sprintf("snapshot_%d", s.Tick)
	if s.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(s.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", s.Tick, sanitized)
	}
	return name + ".json"
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, SnapshotName(snapshot))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
