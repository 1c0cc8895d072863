package sim

import "parkcraft.io/internal/park/tile"

type ParkMetrics struct {
	Tick     uint64 `json:"tick"`
	Sessions int    `json:"sessions"`
	Tiles    int    `json:"tiles"`
	Paths    int    `json:"paths"`
	Scenery  int    `json:"scenery"`
	Cash     int64  `json:"cash"`
	Weather  string `json:"weather"`

	Invalidations uint64 `json:"invalidations_total"`
	Fountains     uint64 `json:"fountains_total"`
	SnowFountains uint64 `json:"snow_fountains_total"`

	QueueDepths QueueDepths `json:"queue_depths"`

	StepMS float64 `json:"step_ms"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

func (p *Park) storeMetrics(stepMS float64) {
	p.metrics.Store(ParkMetrics{
		Tick:          p.tick.Load(),
		Sessions:      len(p.sessions),
		Tiles:         p.m.Size() * p.m.Size(),
		Paths:         p.m.Count(tile.TypePath),
		Scenery:       p.m.Count(tile.TypeSmallScenery) + p.m.Count(tile.TypeLargeScenery),
		Cash:          int64(p.exec.Cash),
		Weather:       p.weather.Current().String(),
		Invalidations: p.screen.invalidations,
		Fountains:     p.screen.fountains,
		SnowFountains: p.screen.snowFountains,
		QueueDepths: QueueDepths{
			Inbox: len(p.inbox),
			Join:  len(p.join),
			Leave: len(p.leave),
		},
		StepMS: stepMS,
	})
}

// Metrics is safe to call from any goroutine.
func (p *Park) Metrics() ParkMetrics {
	if p == nil {
		return ParkMetrics{}
	}
	v := p.metrics.Load()
	if v == nil {
		return ParkMetrics{}
	}
	return v.(ParkMetrics)
}
