package rct1

const (
	DefaultTerrain     = "rct2.surface.grass"
	DefaultTerrainEdge = "rct2.edge.rock"
)

var terrainSurfaces = [...]string{
	"rct2.surface.grass",
	"rct2.surface.sand",
	"rct2.surface.dirt",
	"rct2.surface.rock",
	"rct2.surface.martian",
	"rct2.surface.chequerboard",
	"rct2.surface.grassclumps",
	"rct1.aa.surface.roofred",
	"rct2.surface.ice",
	"rct1.ll.surface.wood",
	"rct1.ll.surface.rust",
	"rct1.ll.surface.roofgrey",
	"rct2.surface.gridred",
	"rct2.surface.gridyellow",
	"rct2.surface.gridpurple",
	"rct2.surface.gridgreen",
}

var terrainEdges = [...]string{
	"rct2.edge.rock",
	"rct1.edge.brick",
	"rct1.edge.iron",
	"rct2.edge.woodred",
	"rct1.aa.edge.grey",
	"rct1.aa.edge.yellow",
	"rct2.edge.woodblack",
	"rct1.aa.edge.red",
	"rct2.edge.ice",
	"rct1.ll.edge.purple",
	"rct1.ll.edge.green",
	"rct1.ll.edge.stonebrown",
	"rct1.ll.edge.stonegrey",
	"rct1.ll.edge.skyscrapera",
	"rct1.ll.edge.skyscraperb",
}

// GetTerrain returns the surface object id for an RCT1 terrain type.
func GetTerrain(surface uint8) string {
	if int(surface) >= len(terrainSurfaces) {
		warnf("unsupported RCT1 terrain surface: %d", surface)
		return DefaultTerrain
	}
	return terrainSurfaces[surface]
}

// GetTerrainEdge returns the edge object id for an RCT1 terrain edge.
func GetTerrainEdge(edge uint8) string {
	if int(edge) >= len(terrainEdges) {
		warnf("unsupported RCT1 terrain edge: %d", edge)
		return DefaultTerrainEdge
	}
	return terrainEdges[edge]
}
