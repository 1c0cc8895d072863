package objects

import (
	"fmt"
	"strings"
)

type SceneryType uint8

const (
	ScenerySmall SceneryType = iota
	SceneryPathItem
	SceneryWall
	SceneryLarge
	SceneryBanner
)

var SceneryTypes = []SceneryType{ScenerySmall, SceneryPathItem, SceneryWall, SceneryLarge, SceneryBanner}

func (t SceneryType) String() string {
	switch t {
	case ScenerySmall:
		return "SMALL"
	case SceneryPathItem:
		return "PATH_ITEM"
	case SceneryWall:
		return "WALL"
	case SceneryLarge:
		return "LARGE"
	case SceneryBanner:
		return "BANNER"
	default:
		return fmt.Sprintf("SCENERY_%d", uint8(t))
	}
}

func ParseSceneryType(s string) (SceneryType, bool) {
	for _, t := range SceneryTypes {
		if strings.EqualFold(t.String(), s) {
			return t, true
		}
	}
	return 0, false
}

// Selection identifies one scenery object entry.
type Selection struct {
	Type  SceneryType `json:"type"`
	Index int         `json:"index"`
}

func (s Selection) String() string { return fmt.Sprintf("%s#%d", s.Type, s.Index) }
