package analysis

import "github.com/rouletteai/roulette-client/internal/wheel"

// Selection identifies the outcome under inspection by its offset in the
// displayed history window and the value shown there.
type Selection struct {
	Index   int           `json:"index"`
	Outcome wheel.Outcome `json:"number"`
}

// Pressure is an optional pressure reading. Found is false when the
// payload had no entry for the pocket.
type Pressure struct {
	Number wheel.Outcome `json:"number"`
	Value  float64       `json:"pressure"`
	Found  bool          `json:"found"`
}

// NeighborhoodRadius is how many pockets on each side the wider
// neighborhood covers, matching the backend's neighbors_3.
const NeighborhoodRadius = 3

// InspectionResult bundles every resolved fact about the selected outcome.
type InspectionResult struct {
	Selection  Selection        `json:"selection"`
	Attributes wheel.Attributes `json:"attributes"`

	HasNeighbors bool               `json:"has_neighbors"`
	Neighbors    wheel.NeighborPair `json:"neighbors"`
	Left         Pressure           `json:"left_pressure"`
	Right        Pressure           `json:"right_pressure"`

	// Neighborhood is the NeighborhoodRadius pockets on each side, left
	// side farthest first, with their pressures.
	Neighborhood []Pressure `json:"neighborhood,omitempty"`

	Horse *HorsePair `json:"horse,omitempty"`
	// HorseOpposite is display metadata only: whether the backend's pair
	// sits half a turn apart on this wheel.
	HorseOpposite bool       `json:"horse_opposite"`
	Zone          *ZoneMatch `json:"zone,omitempty"`
}

// Resolve composes the topology and payload lookups for sel. It has no side
// effects and must be re-run whenever either input changes. A nil payload
// resolves as an empty one.
func Resolve(w *wheel.Wheel, sel Selection, p *Payload) InspectionResult {
	if w == nil {
		w = wheel.European()
	}
	if p == nil {
		p = Empty()
	}

	res := InspectionResult{Selection: sel}
	res.Attributes, _ = wheel.Describe(sel.Outcome)

	if pair, ok := w.NeighborsOf(sel.Outcome); ok {
		res.HasNeighbors = true
		res.Neighbors = pair
		res.Left = readPressure(pair.Left, p.Neighbors)
		res.Right = readPressure(pair.Right, p.Neighbors)

		around := w.Neighbors(sel.Outcome, NeighborhoodRadius)
		res.Neighborhood = make([]Pressure, len(around))
		for i, o := range around {
			res.Neighborhood[i] = readPressure(o, p.Neighbors)
		}
	}

	if horse, ok := FindPair(sel.Outcome, p.Horses); ok {
		res.Horse = &horse
		res.HorseOpposite = isOpposite(w, horse)
	}
	if zone, ok := FindZone(sel.Outcome, p.Zones); ok {
		res.Zone = &zone
	}
	return res
}

func readPressure(o wheel.Outcome, pressures []NeighborPressure) Pressure {
	v, found := LookupPressure(o, pressures)
	return Pressure{Number: o, Value: v, Found: found}
}

// isOpposite reports whether a two-pocket pair sits half a turn apart. The
// wheel has an odd pocket count, so either direction counts.
func isOpposite(w *wheel.Wheel, h HorsePair) bool {
	if len(h.Pair) != 2 {
		return false
	}
	a, b := h.Pair[0], h.Pair[1]
	if opp, ok := w.Opposite(a); ok && opp == b {
		return true
	}
	opp, ok := w.Opposite(b)
	return ok && opp == a
}
