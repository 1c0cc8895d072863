package sim

import (
	"fmt"

	"parkcraft.io/internal/park/actions"
	"parkcraft.io/internal/park/tile"
	"parkcraft.io/internal/persistence/snapshot"
)

// ExportSnapshot captures the park after tick has been stepped. Ghost
// elements and ghost path additions are left out.
func (p *Park) ExportSnapshot(tick uint64) snapshot.SnapshotV1 {
	tiles := p.m.Export()
	for i := range tiles {
		els := tiles[i].Elements[:0]
		for _, e := range tiles[i].Elements {
			if e.Ghost {
				continue
			}
			if e.Type == tile.TypePath && e.Path.AdditionGhost {
				e.Path.HasAddition = false
				e.Path.Addition = 0
				e.Path.AdditionGhost = false
			}
			els = append(els, e)
		}
		tiles[i].Elements = els
	}
	idx, left := p.weather.State()
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshot.Version,
			ParkID:  p.cfg.ID,
			Tick:    tick,
		},
		TickRate:      p.tune.TickRateHz,
		MapSize:       p.m.Size(),
		CatalogDigest: p.cat.Digest(),
		Cash:          int64(p.exec.Cash),
		NoMoney:       p.exec.NoMoney,
		WeatherIndex:  idx,
		WeatherLeft:   left,
		SweepCursor:   p.sweep,
		Selection:     *p.sel,
		Restricted:    p.restrictions.Items(),
		Tiles:         tiles,
	}
}

// ImportSnapshot restores a park saved by ExportSnapshot. It must run before
// Run and before any session joins.
func (p *Park) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if len(p.sessions) > 0 {
		return fmt.Errorf("import snapshot: park has %d sessions", len(p.sessions))
	}
	if snap.CatalogDigest != "" && snap.CatalogDigest != p.cat.Digest() {
		return fmt.Errorf("import snapshot: catalog digest %s does not match loaded objects", snap.CatalogDigest)
	}
	m, err := tile.Import(snap.MapSize, snap.Tiles)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	p.m = m
	p.exec.Map = m
	p.updater.Map = m
	p.exec.Cash = actions.Money(snap.Cash)
	p.exec.NoMoney = snap.NoMoney
	p.lastCash = p.exec.Cash
	p.weather.Restore(snap.WeatherIndex, snap.WeatherLeft)
	p.updater.Weather = p.weather.Current()
	p.sweep = 0
	if total := m.Size() * m.Size(); snap.SweepCursor > 0 && snap.SweepCursor < total {
		p.sweep = snap.SweepCursor
	}
	p.RestoreSelection(snap.Selection)
	p.restrictions.Clear()
	for _, s := range snap.Restricted {
		p.restrictions.Restrict(s)
	}
	p.tick.Store(snap.Header.Tick + 1)
	p.storeMetrics(0)
	return nil
}
