// Package rct1 converts RCT1 data encodings to current object identifiers.
// Every lookup is bounds checked; unknown values log a warning and return a
// documented default.
package rct1

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

var (
	logMu  sync.Mutex
	logger = log.New(os.Stderr, "[rct1] ", log.LstdFlags)
)

// SetLogger replaces the logger used for out-of-range warnings. nil restores
// log.Default().
func SetLogger(l *log.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	if l == nil {
		l = log.Default()
	}
	logger = l
}

func warnf(format string, args ...any) {
	logMu.Lock()
	l := logger
	logMu.Unlock()
	l.Printf("warning: "+format, args...)
}

type rideTypeRow struct {
	Legacy  string `yaml:"legacy"`
	Current string `yaml:"current"`
}

type colourSchemeRow struct {
	Vehicle  string `yaml:"vehicle"`
	Body     string `yaml:"body"`
	Trim     string `yaml:"trim"`
	Tertiary string `yaml:"tertiary"`
}

type themeRow struct {
	Theme   string   `yaml:"theme"`
	Objects []string `yaml:"objects"`
}

type tableFile struct {
	RideTypes           []rideTypeRow     `yaml:"ride_types"`
	ColourSchemes       []colourSchemeRow `yaml:"colour_schemes"`
	VehicleSubEntries   map[int]uint8     `yaml:"vehicle_sub_entries"`
	RideTypeObjects     []string          `yaml:"ride_type_objects"`
	VehicleObjects      []string          `yaml:"vehicle_objects"`
	SmallSceneryObjects []string          `yaml:"small_scenery_objects"`
	LargeSceneryObjects []string          `yaml:"large_scenery_objects"`
	WallObjects         []string          `yaml:"wall_objects"`
	PathObjects         []string          `yaml:"path_objects"`
	PathAdditionObjects []string          `yaml:"path_addition_objects"`
	SceneryGroupObjects []string          `yaml:"scenery_group_objects"`
	WaterObjects        []string          `yaml:"water_objects"`
	SceneryThemes       []themeRow        `yaml:"scenery_themes"`
}

type compiled struct {
	rideTypes     []rideTypeRow
	colourSchemes []ColourSchemeCopyDescriptor
	vehicleNames  []string
	subEntries    [256]uint8
	file          tableFile
}

var (
	loadOnce sync.Once
	loaded   *compiled
	loadErr  error
)

func tables() *compiled {
	loadOnce.Do(func() {
		loaded, loadErr = compile(tablesYAML)
		if loadErr != nil {
			warnf("tables.yaml: %v", loadErr)
			loaded = &compiled{}
		}
	})
	return loaded
}

// Check reports whether the embedded tables parsed cleanly.
func Check() error {
	tables()
	return loadErr
}

func compile(raw []byte) (*compiled, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	c := &compiled{file: f, rideTypes: f.RideTypes}
	if len(f.RideTypeObjects) != len(f.RideTypes) {
		return nil, fmt.Errorf("ride_type_objects has %d rows, ride_types %d", len(f.RideTypeObjects), len(f.RideTypes))
	}
	if len(f.VehicleObjects) != len(f.ColourSchemes) {
		return nil, fmt.Errorf("vehicle_objects has %d rows, colour_schemes %d", len(f.VehicleObjects), len(f.ColourSchemes))
	}
	for i, row := range f.ColourSchemes {
		var d ColourSchemeCopyDescriptor
		var err error
		if d.Body, err = parseColourSource(row.Body); err != nil {
			return nil, fmt.Errorf("colour_schemes[%d].body: %w", i, err)
		}
		if d.Trim, err = parseColourSource(row.Trim); err != nil {
			return nil, fmt.Errorf("colour_schemes[%d].trim: %w", i, err)
		}
		if d.Tertiary, err = parseColourSource(row.Tertiary); err != nil {
			return nil, fmt.Errorf("colour_schemes[%d].tertiary: %w", i, err)
		}
		c.colourSchemes = append(c.colourSchemes, d)
		c.vehicleNames = append(c.vehicleNames, row.Vehicle)
	}
	for k, v := range f.VehicleSubEntries {
		if k < 0 || k >= len(c.subEntries) {
			return nil, fmt.Errorf("vehicle_sub_entries key %d out of range", k)
		}
		c.subEntries[k] = v
	}
	if len(f.SceneryThemes) != len(f.SceneryGroupObjects) {
		return nil, fmt.Errorf("scenery_themes has %d rows, scenery_group_objects %d", len(f.SceneryThemes), len(f.SceneryGroupObjects))
	}
	return c, nil
}

func lookupName(table string, list []string, i int) string {
	if i < 0 || i >= len(list) {
		warnf("unsupported RCT1 %s: %d", table, i)
		return ""
	}
	return strings.TrimSpace(list[i])
}
