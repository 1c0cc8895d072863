package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/climate"
	"parkcraft.io/internal/park/scenery"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz         int `yaml:"tick_rate_hz"`
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
	ArchiveEveryTicks  int `yaml:"archive_every_ticks"`
	KeepSnapshots      int `yaml:"keep_snapshots"`
	// ScenerySweepPerTick is how many tiles the scenery update visits per tick.
	ScenerySweepPerTick int `yaml:"scenery_sweep_per_tick"`

	MapSize    int    `yaml:"map_size"`
	BaseHeight int    `yaml:"base_height"`
	Hills      []Hill `yaml:"hills"`

	Networked    bool `yaml:"networked"`
	EditorMode   bool `yaml:"editor_mode"`
	BuildInPause bool `yaml:"build_in_pause"`

	Cash    actions.Money  `yaml:"cash"`
	NoMoney bool           `yaml:"no_money"`
	Prices  actions.Prices `yaml:"prices"`

	Cheats              scenery.Cheats  `yaml:"cheats"`
	RestrictMiscScenery bool            `yaml:"restrict_misc_scenery"`
	Climate             []climate.Spell `yaml:"climate"`

	MaxSessions int `yaml:"max_sessions"`
}

// Hill is a raised plateau with sloped edges.
type Hill struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Radius int `yaml:"radius"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:     "1.0",
		TickRateHz:          40,
		SnapshotEveryTicks:  2400,
		ArchiveEveryTicks:   144000,
		KeepSnapshots:       24,
		ScenerySweepPerTick: 128,
		MapSize:             64,
		BaseHeight:          16,
		Cash:                10000,
		Prices:              actions.DefaultPrices(),
		Climate: []climate.Spell{
			{Weather: climate.Sunny, Ticks: 1200},
			{Weather: climate.Cloudy, Ticks: 400},
			{Weather: climate.Rain, Ticks: 600},
		},
		MaxSessions: 16,
	}
}

// Load overlays path onto Defaults. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 || t.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz out of range: %d", t.TickRateHz)
	}
	if t.MapSize < 4 || t.MapSize > 256 {
		return fmt.Errorf("map_size out of range: %d", t.MapSize)
	}
	if t.BaseHeight < 0 || t.BaseHeight%16 != 0 {
		return fmt.Errorf("base_height must be a non-negative multiple of 16: %d", t.BaseHeight)
	}
	if t.SnapshotEveryTicks < 0 || t.ArchiveEveryTicks < 0 || t.KeepSnapshots < 0 {
		return fmt.Errorf("snapshot settings must not be negative")
	}
	if t.ScenerySweepPerTick < 0 {
		return fmt.Errorf("scenery_sweep_per_tick must not be negative")
	}
	for i, h := range t.Hills {
		if h.X < 0 || h.Y < 0 || h.X >= t.MapSize || h.Y >= t.MapSize || h.Radius < 0 {
			return fmt.Errorf("hills[%d] outside map", i)
		}
	}
	return nil
}
