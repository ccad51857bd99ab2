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

// Snapshot holds the complete simulation state needed to resume a run.
// Times are stored as ages relative to the snapshot clock, so a restored
// world can re-anchor them onto its own clock.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`

	Tick    int64   `json:"tick"`
	ClockMS float64 `json:"clock_ms"`

	NextID     uint32  `json:"next_id"`
	FoodTimer  float64 `json:"food_timer"`
	SpawnTimer float64 `json:"spawn_timer"`
	Discarded  int     `json:"discarded"`

	Agents []AgentState `json:"agents"`
	Food   []FoodState  `json:"food"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// AgentState holds one agent's complete state.
type AgentState struct {
	ID uint32 `json:"id"`

	// Position and movement
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	RemX    float64 `json:"rem_x"`
	RemY    float64 `json:"rem_y"`

	// Vitals
	Health        float64 `json:"health"`
	TurnCooldown  float64 `json:"turn_cooldown"`
	ReproCooldown float64 `json:"repro_cooldown"`
	AgeMS         float64 `json:"age_ms"`

	// Lifetime counters
	FoodEaten  int `json:"food_eaten"`
	Children   int `json:"children"`
	Generation int `json:"generation"`

	Traits TraitsState `json:"traits"`
	Body   []float64   `json:"body"`
	Brain  []float64   `json:"brain"`
}

// TraitsState is the serialized phenotype. It is stored rather than
// recomputed so hand-built agents survive a round trip.
type TraitsState struct {
	R       uint8   `json:"r"`
	G       uint8   `json:"g"`
	B       uint8   `json:"b"`
	Speed   float64 `json:"speed"`
	Size    float64 `json:"size"`
	Vision  float64 `json:"vision"`
	Asexual float64 `json:"asexual"`
	Sexual  float64 `json:"sexual"`
}

// FoodState holds one food item.
type FoodState struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Value float64 `json:"value"`
	Size  float64 `json:"size"`
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk. It checks the format version;
// content validation is up to the consumer.
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
