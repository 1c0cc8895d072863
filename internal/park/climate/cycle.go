package climate

// Spell is one stretch of weather in a cycle.
type Spell struct {
	Weather Weather `yaml:"weather" json:"weather"`
	Ticks   uint64  `yaml:"ticks" json:"ticks"`
}

// Cycle steps through a repeating list of weather spells.
type Cycle struct {
	spells []Spell
	idx    int
	left   uint64
}

// NewCycle ignores spells with zero ticks. An empty cycle stays Sunny.
func NewCycle(spells []Spell) *Cycle {
	c := &Cycle{}
	for _, s := range spells {
		if s.Ticks > 0 {
			c.spells = append(c.spells, s)
		}
	}
	if len(c.spells) > 0 {
		c.left = c.spells[0].Ticks
	}
	return c
}

func (c *Cycle) Current() Weather {
	if len(c.spells) == 0 {
		return Sunny
	}
	return c.spells[c.idx].Weather
}

// Tick advances one tick and reports whether the weather changed.
func (c *Cycle) Tick() bool {
	if len(c.spells) == 0 {
		return false
	}
	before := c.Current()
	c.left--
	if c.left == 0 {
		c.idx = (c.idx + 1) % len(c.spells)
		c.left = c.spells[c.idx].Ticks
	}
	return c.Current() != before
}

// State returns the cursor so it can be restored from a snapshot.
func (c *Cycle) State() (idx int, left uint64) { return c.idx, c.left }

func (c *Cycle) Restore(idx int, left uint64) {
	if len(c.spells) == 0 {
		return
	}
	if idx < 0 || idx >= len(c.spells) {
		idx = 0
	}
	if left == 0 || left > c.spells[idx].Ticks {
		left = c.spells[idx].Ticks
	}
	c.idx, c.left = idx, left
}
