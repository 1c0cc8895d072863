package main

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"parkcraft.io/internal/legacy/rct1"
)

// rct1 looks up how legacy RCT1 values convert, e.g.
//
//	rct1 ride 51 71
//	rct1 scheme 10
//	rct1 theme 5
func main() {
	rct1.SetLogger(log.New(os.Stderr, "[rct1] ", 0))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if os.Args[1] == "check" {
		if err := rct1.Check(); err != nil {
			fmt.Fprintln(os.Stderr, "tables:", err)
			os.Exit(1)
		}
		fmt.Println("tables ok")
		return
	}
	out, err := lookup(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Println(out)
}

type lookupFn struct {
	args int
	help string
	fn   func(v []uint8) string
}

var lookups = map[string]lookupFn{
	"colour":   {1, "COLOUR", func(v []uint8) string { return rct1.GetColour(v[0]).String() }},
	"sprite":   {1, "PEEP_SPRITE", func(v []uint8) string { return rct1.GetPeepSpriteType(v[0]).String() }},
	"terrain":  {1, "SURFACE", func(v []uint8) string { return rct1.GetTerrain(v[0]) }},
	"edge":     {1, "EDGE", func(v []uint8) string { return rct1.GetTerrainEdge(v[0]) }},
	"ride":     {2, "RIDE_TYPE VEHICLE_TYPE", rideLine},
	"vehicle":  {1, "VEHICLE_TYPE", vehicleLine},
	"scheme":   {1, "VEHICLE_TYPE", schemeLine},
	"theme":    {1, "THEME", themeLine},
	"path":     {1, "PATH_TYPE", pathLine},
	"addition": {1, "ADDITION", additionLine},
	"scenery":  {2, "small|large|wall|group|water N", nil},
}

var sceneryKinds = map[string]func(uint8) string{
	"small": rct1.GetSmallSceneryObject,
	"large": rct1.GetLargeSceneryObject,
	"wall":  rct1.GetWallObject,
	"group": rct1.GetSceneryGroupObject,
	"water": rct1.GetWaterObject,
}

// lookup runs one named lookup. Numeric arguments must fit in a byte.
func lookup(name string, args []string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	l, ok := lookups[name]
	if !ok {
		if s := suggest(name); s != "" {
			return "", fmt.Errorf("unknown lookup %q, did you mean %q?", name, s)
		}
		return "", fmt.Errorf("unknown lookup %q", name)
	}
	if name == "scenery" {
		if len(args) != 2 {
			return "", fmt.Errorf("usage: rct1 scenery %s", l.help)
		}
		get, ok := sceneryKinds[strings.ToLower(args[0])]
		if !ok {
			return "", fmt.Errorf("unknown scenery kind %q", args[0])
		}
		v, err := parseByte(args[1])
		if err != nil {
			return "", err
		}
		return orNone(get(v)), nil
	}
	if len(args) < l.args && !(name == "ride" && len(args) == 1) {
		return "", fmt.Errorf("usage: rct1 %s %s", name, l.help)
	}
	vals := make([]uint8, l.args)
	for i := 0; i < len(args) && i < l.args; i++ {
		v, err := parseByte(args[i])
		if err != nil {
			return "", err
		}
		vals[i] = v
	}
	return l.fn(vals), nil
}

func rideLine(v []uint8) string {
	vehicles := "no"
	if rct1.RideTypeUsesVehicles(v[0]) {
		vehicles = "yes"
	}
	return fmt.Sprintf("%s -> %s (object %s, vehicles %s)",
		orNone(rct1.RideTypeName(v[0])), rct1.GetRideType(v[0], v[1]), orNone(rct1.GetRideTypeObject(v[0])), vehicles)
}

func vehicleLine(v []uint8) string {
	return fmt.Sprintf("%s -> object %s", orNone(rct1.VehicleTypeName(v[0])), orNone(rct1.GetVehicleObject(v[0])))
}

func schemeLine(v []uint8) string {
	d := rct1.GetColourSchemeCopyDescriptor(v[0])
	return fmt.Sprintf("body=%s trim=%s tertiary=%s", d.Body, d.Trim, d.Tertiary)
}

func themeLine(v []uint8) string {
	objs := rct1.GetSceneryObjects(v[0])
	return fmt.Sprintf("%s (group %s): %s", orNone(rct1.SceneryThemeName(v[0])), orNone(rct1.GetSceneryGroupObject(v[0])), strings.Join(objs, " "))
}

func pathLine(v []uint8) string {
	kind := "footpath"
	if rct1.PathIsQueue(v[0]) {
		kind = "queue"
	}
	return fmt.Sprintf("%s %s", orNone(rct1.GetPathObject(v[0])), kind)
}

func additionLine(v []uint8) string {
	n := rct1.NormalisePathAddition(v[0])
	if n != v[0] {
		return fmt.Sprintf("%s (repaired from %d)", orNone(rct1.GetPathAdditionObject(n)), v[0])
	}
	return orNone(rct1.GetPathAdditionObject(n))
}

func parseByte(s string) (uint8, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, 8)
	if err != nil {
		return 0, fmt.Errorf("bad value %q: want 0..255", s)
	}
	return uint8(n), nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func suggest(name string) string {
	best, bestDist := "", 3
	for _, k := range lookupNames() {
		if d := levenshtein.ComputeDistance(name, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}

func lookupNames() []string {
	names := make([]string, 0, len(lookups))
	for k := range lookups {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: rct1 check | rct1 LOOKUP ARGS...")
	for _, k := range lookupNames() {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", k, lookups[k].help)
	}
}
