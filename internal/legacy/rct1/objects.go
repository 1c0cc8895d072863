package rct1

// Object lookups return the legacy object name with padding removed, or ""
// when the index is out of range or the slot has no object.

func GetRideTypeObject(rideType uint8) string {
	return lookupName("ride type", tables().file.RideTypeObjects, int(rideType))
}

func GetVehicleObject(vehicleType uint8) string {
	return lookupName("vehicle type", tables().file.VehicleObjects, int(vehicleType))
}

func GetSmallSceneryObject(t uint8) string {
	return lookupName("small scenery type", tables().file.SmallSceneryObjects, int(t))
}

func GetLargeSceneryObject(t uint8) string {
	return lookupName("large scenery type", tables().file.LargeSceneryObjects, int(t))
}

// GetWallObject falls back to the first wall for unknown types.
func GetWallObject(t uint8) string {
	walls := tables().file.WallObjects
	if int(t) >= len(walls) {
		warnf("unsupported RCT1 wall type: %d", t)
		if len(walls) == 0 {
			return ""
		}
		t = 0
	}
	return lookupName("wall type", walls, int(t))
}

func GetPathObject(pathType uint8) string {
	return lookupName("footpath type", tables().file.PathObjects, int(pathType))
}

func GetPathAdditionObject(a uint8) string {
	return lookupName("path addition", tables().file.PathAdditionObjects, int(a))
}

func GetSceneryGroupObject(theme uint8) string {
	return lookupName("scenery theme", tables().file.SceneryGroupObjects, int(theme))
}

func GetWaterObject(t uint8) string {
	return lookupName("water type", tables().file.WaterObjects, int(t))
}

// SceneryThemeName is the theme name used in tables.yaml, or "".
func SceneryThemeName(theme uint8) string {
	themes := tables().file.SceneryThemes
	if int(theme) >= len(themes) {
		return ""
	}
	return themes[theme].Theme
}

// GetSceneryObjects lists the objects a theme unlocks. The result is a copy.
func GetSceneryObjects(theme uint8) []string {
	themes := tables().file.SceneryThemes
	if int(theme) >= len(themes) {
		warnf("unsupported RCT1 scenery theme: %d", theme)
		return nil
	}
	src := themes[theme].Objects
	out := make([]string, len(src))
	copy(out, src)
	return out
}
