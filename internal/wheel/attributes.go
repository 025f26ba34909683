package wheel

// Color of a pocket.
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
	Black Color = "black"
)

// Sector is one of the classic French call bet sections.
type Sector string

const (
	Voisins   Sector = "voisins"
	Tiers     Sector = "tiers"
	Orphelins Sector = "orphelins"
)

var redPockets = map[Outcome]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

var sectors = func() map[Outcome]Sector {
	m := make(map[Outcome]Sector, Pockets)
	for _, o := range []Outcome{22, 18, 29, 7, 28, 12, 35, 3, 26, 0, 32, 15, 19, 4, 21, 2, 25} {
		m[o] = Voisins
	}
	for _, o := range []Outcome{27, 13, 36, 11, 30, 8, 23, 10, 5, 24, 16, 33} {
		m[o] = Tiers
	}
	for _, o := range []Outcome{1, 20, 14, 31, 9, 17, 34, 6} {
		m[o] = Orphelins
	}
	return m
}()

// Attributes are the fixed table properties of a pocket. Dozen, Column
// and the parity/range flags are zero for the zero pocket.
type Attributes struct {
	Outcome    Outcome `json:"number"`
	Color      Color   `json:"color"`
	Even       bool    `json:"even"`
	Odd        bool    `json:"odd"`
	Low        bool    `json:"low"`
	High       bool    `json:"high"`
	Dozen      int     `json:"dozen,omitempty"`
	Column     int     `json:"column,omitempty"`
	Terminal   int     `json:"terminal"`
	Sector     Sector  `json:"sector"`
	WheelIndex int     `json:"wheel_index"`
}

// ColorOf returns the pocket color.
func ColorOf(o Outcome) Color {
	switch {
	case o == 0:
		return Green
	case redPockets[o]:
		return Red
	default:
		return Black
	}
}

// SectorOf returns the call bet section containing o.
func SectorOf(o Outcome) (Sector, bool) {
	s, ok := sectors[o]
	return s, ok
}

// Describe returns the table attributes of o on the European wheel.
// ok is false for values outside [0,36].
func Describe(o Outcome) (Attributes, bool) {
	if !o.Valid() {
		return Attributes{}, false
	}

	idx, _ := European().IndexOf(o)
	sector, _ := SectorOf(o)
	attrs := Attributes{
		Outcome:    o,
		Color:      ColorOf(o),
		Terminal:   int(o) % 10,
		Sector:     sector,
		WheelIndex: idx,
	}
	if o == 0 {
		return attrs, true
	}

	n := int(o)
	attrs.Even = n%2 == 0
	attrs.Odd = !attrs.Even
	attrs.Low = n <= 18
	attrs.High = !attrs.Low
	attrs.Dozen = (n-1)/12 + 1
	attrs.Column = n % 3
	if attrs.Column == 0 {
		attrs.Column = 3
	}
	return attrs, true
}
