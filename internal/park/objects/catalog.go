package objects

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type SurfaceDef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Queue      bool   `json:"queue,omitempty"`
	EditorOnly bool   `json:"editor_only,omitempty"`
}

type RailingDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LegacyPathDef is an old-style path object bundling a surface, queue and railings.
type LegacyPathDef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	EditorOnly bool   `json:"editor_only,omitempty"`
}

type PathAdditionDef struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	JumpingFountainWater bool   `json:"jumping_fountain_water,omitempty"`
	JumpingFountainSnow  bool   `json:"jumping_fountain_snow,omitempty"`
}

func (d PathAdditionDef) IsJumpingFountain() bool {
	return d.JumpingFountainWater || d.JumpingFountainSnow
}

type SmallSceneryDef struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CanBeWatered  bool   `json:"can_be_watered,omitempty"`
	CanWither     bool   `json:"can_wither,omitempty"`
	VOffsetCentre bool   `json:"voffset_centre,omitempty"`
}

type LargeSceneryDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WallDef struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Flags2 uint8  `json:"flags2,omitempty"`
}

const (
	wallDoorSoundMask  = 0x6
	wallDoorSoundShift = 1
)

func (d WallDef) DoorSound() int {
	return int(d.Flags2&wallDoorSoundMask) >> wallDoorSoundShift
}

type BannerDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SceneryGroupDef struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Items []GroupRef `json:"items"`
}

type GroupRef struct {
	Type string `json:"type"` // "SMALL","PATH_ITEM","WALL","LARGE","BANNER"
	ID   string `json:"id"`
}

// Catalog holds every loaded object list. Entry index = position in its list.
type Catalog struct {
	Surfaces      []SurfaceDef
	Railings      []RailingDef
	LegacyPaths   []LegacyPathDef
	PathAdditions []PathAdditionDef
	SmallScenery  []SmallSceneryDef
	LargeScenery  []LargeSceneryDef
	Walls         []WallDef
	Banners       []BannerDef
	SceneryGroups []SceneryGroupDef

	// Resolved group membership, parallel to SceneryGroups.
	GroupItems [][]Selection

	Digests map[string]string
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadList[T any](dir, name string, out *[]T, id func(T) string, digests map[string]string) error {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	digests[name] = sha256Hex(raw)
	var defs []T
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	seen := map[string]bool{}
	for i, d := range defs {
		k := id(d)
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("%s: entry %d: empty id", name, i)
		}
		if seen[k] {
			return fmt.Errorf("%s: duplicate id %q", name, k)
		}
		seen[k] = true
	}
	*out = defs
	return nil
}

// Load reads <configDir>/objects/*.json.
func Load(configDir string) (*Catalog, error) {
	dir := filepath.Join(configDir, "objects")
	c := &Catalog{Digests: map[string]string{}}

	steps := []func() error{
		func() error {
			return loadList(dir, "surfaces.json", &c.Surfaces, func(d SurfaceDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "railings.json", &c.Railings, func(d RailingDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "paths.json", &c.LegacyPaths, func(d LegacyPathDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "path_additions.json", &c.PathAdditions, func(d PathAdditionDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "small_scenery.json", &c.SmallScenery, func(d SmallSceneryDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "large_scenery.json", &c.LargeScenery, func(d LargeSceneryDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "walls.json", &c.Walls, func(d WallDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "banners.json", &c.Banners, func(d BannerDef) string { return d.ID }, c.Digests)
		},
		func() error {
			return loadList(dir, "scenery_groups.json", &c.SceneryGroups, func(d SceneryGroupDef) string { return d.ID }, c.Digests)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if err := c.resolveGroups(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) resolveGroups() error {
	c.GroupItems = make([][]Selection, len(c.SceneryGroups))
	for gi, g := range c.SceneryGroups {
		for _, ref := range g.Items {
			t, ok := ParseSceneryType(ref.Type)
			if !ok {
				return fmt.Errorf("scenery_groups.json: %s: bad item type %q", g.ID, ref.Type)
			}
			idx, ok := c.IndexOf(t, ref.ID)
			if !ok {
				return fmt.Errorf("scenery_groups.json: %s: unknown %s %q", g.ID, ref.Type, ref.ID)
			}
			c.GroupItems[gi] = append(c.GroupItems[gi], Selection{Type: t, Index: idx})
		}
	}
	return nil
}

// Digest combines the per-file digests in a stable order.
func (c *Catalog) Digest() string {
	names := make([]string, 0, len(c.Digests))
	for n := range c.Digests {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(c.Digests[n])
		b.WriteByte('\n')
	}
	return sha256Hex([]byte(b.String()))
}

func at[T any](list []T, i int) (T, bool) {
	var zero T
	if i < 0 || i >= len(list) {
		return zero, false
	}
	return list[i], true
}

func (c *Catalog) Surface(i int) (SurfaceDef, bool) { return at(c.Surfaces, i) }
func (c *Catalog) Railing(i int) (RailingDef, bool) { return at(c.Railings, i) }
func (c *Catalog) LegacyPath(i int) (LegacyPathDef, bool) { return at(c.LegacyPaths, i) }
func (c *Catalog) PathAddition(i int) (PathAdditionDef, bool) { return at(c.PathAdditions, i) }
func (c *Catalog) Small(i int) (SmallSceneryDef, bool) { return at(c.SmallScenery, i) }
func (c *Catalog) Large(i int) (LargeSceneryDef, bool) { return at(c.LargeScenery, i) }
func (c *Catalog) Wall(i int) (WallDef, bool) { return at(c.Walls, i) }
func (c *Catalog) Banner(i int) (BannerDef, bool) { return at(c.Banners, i) }

// WallDoorSound returns the door sound of a wall entry.
func (c *Catalog) WallDoorSound(entry int) (int, bool) {
	w, ok := c.Wall(entry)
	if !ok {
		return 0, false
	}
	return w.DoorSound(), true
}

func (c *Catalog) count(t SceneryType) int {
	switch t {
	case ScenerySmall:
		return len(c.SmallScenery)
	case SceneryPathItem:
		return len(c.PathAdditions)
	case SceneryWall:
		return len(c.Walls)
	case SceneryLarge:
		return len(c.LargeScenery)
	case SceneryBanner:
		return len(c.Banners)
	}
	return 0
}

func (c *Catalog) id(s Selection) string {
	switch s.Type {
	case ScenerySmall:
		d, _ := c.Small(s.Index)
		return d.ID
	case SceneryPathItem:
		d, _ := c.PathAddition(s.Index)
		return d.ID
	case SceneryWall:
		d, _ := c.Wall(s.Index)
		return d.ID
	case SceneryLarge:
		d, _ := c.Large(s.Index)
		return d.ID
	case SceneryBanner:
		d, _ := c.Banner(s.Index)
		return d.ID
	}
	return ""
}

// IndexOf finds an entry of the given scenery type by id.
func (c *Catalog) IndexOf(t SceneryType, id string) (int, bool) {
	n := c.count(t)
	for i := 0; i < n; i++ {
		if c.id(Selection{Type: t, Index: i}) == id {
			return i, true
		}
	}
	return -1, false
}

// Loaded reports whether a scenery selection refers to a loaded entry.
func (c *Catalog) Loaded(s Selection) bool {
	return s.Index >= 0 && s.Index < c.count(s.Type)
}

// ID returns the object id behind a scenery selection, or "".
func (c *Catalog) ID(s Selection) string { return c.id(s) }

// AllScenery lists every loaded scenery entry by type then index.
func (c *Catalog) AllScenery() []Selection {
	var out []Selection
	for _, t := range SceneryTypes {
		for i, n := 0, c.count(t); i < n; i++ {
			out = append(out, Selection{Type: t, Index: i})
		}
	}
	return out
}

// InAnyGroup reports whether the item belongs to a scenery group.
func (c *Catalog) InAnyGroup(s Selection) bool {
	for _, items := range c.GroupItems {
		for _, it := range items {
			if it == s {
				return true
			}
		}
	}
	return false
}
