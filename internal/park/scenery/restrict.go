package scenery

import "parkcraft.io/internal/park/objects"

// Restrictions lists scenery the park forbids outside sandbox mode.
type Restrictions struct {
	items []objects.Selection
}

func (r *Restrictions) IsRestricted(s objects.Selection) bool {
	for _, it := range r.items {
		if it == s {
			return true
		}
	}
	return false
}

func (r *Restrictions) Restrict(s objects.Selection) {
	if !r.IsRestricted(s) {
		r.items = append(r.items, s)
	}
}

func (r *Restrictions) Unrestrict(s objects.Selection) {
	for i, it := range r.items {
		if it == s {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return
		}
	}
}

func (r *Restrictions) Clear() { r.items = nil }

func (r *Restrictions) Items() []objects.Selection {
	out := make([]objects.Selection, len(r.items))
	copy(out, r.items)
	return out
}

// RestrictAllMisc restricts every loaded item that no scenery group contains.
func (r *Restrictions) RestrictAllMisc(cat *objects.Catalog) {
	for _, s := range cat.AllScenery() {
		if !cat.InAnyGroup(s) {
			r.Restrict(s)
		}
	}
}

// Research reports invention progress. Research progression itself lives
// elsewhere; AllInvented is used when it is not tracked.
type Research interface {
	IsInvented(s objects.Selection) bool
}

type AllInvented struct{}

func (AllInvented) IsInvented(objects.Selection) bool { return true }

// IsAvailableToBuild applies the research and restriction rules with their
// cheat overrides.
func IsAvailableToBuild(s objects.Selection, res Research, r *Restrictions, cheats Cheats) bool {
	if !cheats.IgnoreResearch && !res.IsInvented(s) {
		return false
	}
	if !cheats.Sandbox && r.IsRestricted(s) {
		return false
	}
	return true
}
