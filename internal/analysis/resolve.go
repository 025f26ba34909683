package analysis

import "github.com/rouletteai/roulette-client/internal/wheel"

// FindPair returns the first pair containing o.
func FindPair(o wheel.Outcome, pairs []HorsePair) (HorsePair, bool) {
	for i := range pairs {
		if pairs[i].Contains(o) {
			return pairs[i], true
		}
	}
	return HorsePair{}, false
}

// ZoneMatch is a zone together with its position in the payload.
type ZoneMatch struct {
	Index int  `json:"index"` // 0-based position in the zone list
	Zone  Zone `json:"zone"`
}

// Ordinal is the 1-based position used for display numbering.
func (m ZoneMatch) Ordinal() int {
	return m.Index + 1
}

// FindZone returns the first zone containing o. Overlapping zones resolve to the lowest index.
func FindZone(o wheel.Outcome, zones []Zone) (ZoneMatch, bool) {
	for i := range zones {
		if zones[i].Contains(o) {
			return ZoneMatch{Index: i, Zone: zones[i]}, true
		}
	}
	return ZoneMatch{}, false
}

// LookupPressure returns the pressure of the first entry for o.
// found is false when the payload has no entry, which PressureOf reports as 0.
func LookupPressure(o wheel.Outcome, pressures []NeighborPressure) (pressure float64, found bool) {
	for _, p := range pressures {
		if p.Number == o {
			return p.Pressure, true
		}
	}
	return 0, false
}

// PressureOf returns the pressure for o, or 0 when absent.
func PressureOf(o wheel.Outcome, pressures []NeighborPressure) float64 {
	p, _ := LookupPressure(o, pressures)
	return p
}
