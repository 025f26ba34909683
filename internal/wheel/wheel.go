// Package wheel models the physical layout of a single-zero roulette wheel.
//
// Pockets are identified by Outcome. Adjacency is defined by the cyclic
// wheel order, not by numeric order: on the European wheel 0 sits between
// 26 and 32.
package wheel

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rouletteai/roulette-client/internal/errors"
)

// Outcome is the result of a single spin.
type Outcome int

const (
	MinOutcome Outcome = 0
	MaxOutcome Outcome = 36

	// Pockets is the number of distinct outcomes on a single-zero wheel.
	Pockets = int(MaxOutcome-MinOutcome) + 1
)

// Valid reports whether o is a legal outcome.
func (o Outcome) Valid() bool {
	return o >= MinOutcome && o <= MaxOutcome
}

func (o Outcome) String() string {
	return strconv.Itoa(int(o))
}

// ParseOutcome parses user input such as " 14 " into an Outcome.
func ParseOutcome(input string) (Outcome, error) {
	trimmed := strings.TrimSpace(input)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, errors.Newf("invalid number %q: must be an integer between %d and %d", trimmed, MinOutcome, MaxOutcome).
			Component("wheel").
			Category(errors.CategoryValidation).
			Context("input", input).
			Build()
	}
	return CheckOutcome(n)
}

// CheckOutcome converts n to an Outcome, rejecting values outside [0,36].
func CheckOutcome(n int) (Outcome, error) {
	o := Outcome(n)
	if !o.Valid() {
		return 0, errors.Newf("invalid number %d: must be between %d and %d", n, MinOutcome, MaxOutcome).
			Component("wheel").
			Category(errors.CategoryValidation).
			Context("number", n).
			Build()
	}
	return o, nil
}

// europeanOrder is the clockwise pocket order starting at zero.
var europeanOrder = []Outcome{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
	5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

var european = mustNew(europeanOrder)

// European returns the shared single-zero wheel.
func European() *Wheel {
	return european
}

// NeighborPair holds the pockets on either side of an outcome.
type NeighborPair struct {
	Left  Outcome `json:"left"`
	Right Outcome `json:"right"`
}

// Wheel is an immutable cyclic pocket order. It is safe for concurrent use.
type Wheel struct {
	order []Outcome
	index map[Outcome]int
}

// New builds a wheel from a cyclic order. The order must be non-empty and free of duplicates.
func New(order []Outcome) (*Wheel, error) {
	if len(order) == 0 {
		return nil, errors.Newf("wheel order is empty").
			Component("wheel").
			Category(errors.CategoryValidation).
			Build()
	}

	index := make(map[Outcome]int, len(order))
	for i, o := range order {
		if prev, dup := index[o]; dup {
			return nil, errors.Newf("pocket %d appears twice in wheel order (positions %d and %d)", o, prev, i).
				Component("wheel").
				Category(errors.CategoryValidation).
				Build()
		}
		index[o] = i
	}

	return &Wheel{order: slices.Clone(order), index: index}, nil
}

func mustNew(order []Outcome) *Wheel {
	w, err := New(order)
	if err != nil {
		panic(fmt.Sprintf("wheel: %v", err))
	}
	return w
}

// Len returns the number of pockets.
func (w *Wheel) Len() int {
	return len(w.order)
}

// Order returns a copy of the cyclic order.
func (w *Wheel) Order() []Outcome {
	return slices.Clone(w.order)
}

// At returns the pocket at position i, wrapping in both directions.
func (w *Wheel) At(i int) Outcome {
	n := len(w.order)
	return w.order[((i%n)+n)%n]
}

// IndexOf returns the position of o in the wheel order.
func (w *Wheel) IndexOf(o Outcome) (int, bool) {
	i, ok := w.index[o]
	return i, ok
}

// Contains reports whether o is a pocket of this wheel.
func (w *Wheel) Contains(o Outcome) bool {
	_, ok := w.index[o]
	return ok
}

// NeighborsOf returns the pockets immediately left and right of o.
// ok is false when o is not on the wheel.
func (w *Wheel) NeighborsOf(o Outcome) (pair NeighborPair, ok bool) {
	i, ok := w.index[o]
	if !ok {
		return NeighborPair{}, false
	}
	return NeighborPair{Left: w.At(i - 1), Right: w.At(i + 1)}, true
}

// Neighbors returns the radius pockets on each side of o: the left side
// farthest first, then the right side nearest first. For radius 2 around 0
// that is [3 26 32 15]. Unknown outcomes and non-positive radii return nil.
func (w *Wheel) Neighbors(o Outcome, radius int) []Outcome {
	i, ok := w.index[o]
	if !ok || radius <= 0 {
		return nil
	}
	// never wrap past the pocket itself
	if limit := (len(w.order) - 1) / 2; radius > limit {
		radius = limit
	}

	out := make([]Outcome, 0, 2*radius)
	for d := radius; d >= 1; d-- {
		out = append(out, w.At(i-d))
	}
	for d := 1; d <= radius; d++ {
		out = append(out, w.At(i+d))
	}
	return out
}

// Opposite returns the pocket half a turn away from o, matching the
// backend's horse pairing of position i with position i+18.
func (w *Wheel) Opposite(o Outcome) (Outcome, bool) {
	i, ok := w.index[o]
	if !ok {
		return 0, false
	}
	return w.At(i + len(w.order)/2), true
}
